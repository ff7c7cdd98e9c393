package tool

import (
	"github.com/Zahlii/godslr/types"
)

// Version is the announce protocol version (major.minor).
const Version = "1.0"

// ApplyFlagOverrides folds CLI flag overrides into the loaded config.
func ApplyFlagOverrides(appCfg *types.AppConfig, flags Config) {
	if flags.UseAlias != "" {
		appCfg.Alias = flags.UseAlias
	}
	if flags.UsePort > 0 {
		appCfg.Port = flags.UsePort
	}
	if flags.UseSimulated {
		appCfg.Camera.Simulated = true
	}
	if flags.UseNetcamURL != "" {
		appCfg.Camera.NetcamURL = flags.UseNetcamURL
	}
	if flags.UseImageFolder != "" {
		appCfg.ImageFolder = flags.UseImageFolder
	}
	if flags.UseCountdown > 0 {
		appCfg.Booth.CountdownCaptureSeconds = flags.UseCountdown
	}
	if flags.UseInactivity > 0 {
		appCfg.Booth.InactivityReturnSeconds = flags.UseInactivity
	}
	if flags.UseTitle != "" {
		appCfg.Booth.BoothTitle = flags.UseTitle
	}
	if flags.UsePrinter != "" {
		appCfg.Booth.DefaultPrinter = flags.UsePrinter
	}
	if flags.UseFolder != "" {
		appCfg.Booth.FolderName = flags.UseFolder
	}
	if flags.UseMirror {
		appCfg.Booth.MirrorImage = true
	}
}

// BuildAnnounceMessage builds the device announce payload from the
// effective config. deviceModel names the attached camera.
func BuildAnnounceMessage(appCfg *types.AppConfig, deviceModel string) *types.AnnounceMessage {
	return &types.AnnounceMessage{
		Alias:       appCfg.Alias,
		Version:     Version,
		DeviceModel: deviceModel,
		DeviceType:  "camera-server",
		Fingerprint: appCfg.Fingerprint,
		Port:        appCfg.Port,
		Protocol:    "http",
		Announce:    true,
	}
}
