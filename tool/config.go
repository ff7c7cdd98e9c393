package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Zahlii/godslr/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
	// flagOverrides holds CLI flag overrides for the config API (set by main after SetFlags).
	flagOverrides *Config
)

// SetFlagOverrides stores the current CLI flag config for the config API to merge.
func SetFlagOverrides(c *Config) {
	flagOverrides = c
}

// GetFlagOverrides returns a copy of flag overrides, or a zero value if not set.
func GetFlagOverrides() Config {
	if flagOverrides == nil {
		return Config{}
	}
	return *flagOverrides
}

func defaultConfig() types.AppConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return types.AppConfig{
		Alias:        NameGenerator(),
		Fingerprint:  "", // generated on first load
		Port:         8000,
		ImageFolder:  filepath.Join(home, "dslr-tool"),
		LayoutFolder: "layouts",
		Camera: types.CameraConfig{
			Simulated:     false,
			KeepOnDevice:  false,
			PreviewMaxFPS: 15,
		},
		Booth: types.BoothConfig{
			CountdownCaptureSeconds: 10,
			InactivityReturnSeconds: 30,
			BoothTitle:              "Photo Booth",
			DefaultPrinter:          "Canon_SELPHY_CP1500",
			FolderName:              "new-event",
			MirrorImage:             false,
		},
		Printer: types.PrinterConfig{
			Border:    75,
			Landscape: true,
		},
		Announce: types.AnnounceConfig{
			Enabled:   true,
			Multicast: true,
			MDNS:      true,
		},
		Button: types.ButtonConfig{
			Enabled: false,
			Pin:     17,
		},
	}
}

// generateRandomFingerprint generates a random 32-character fingerprint
func generateRandomFingerprint() string {
	return strings.ReplaceAll(GenerateRandomUUID(), "-", "")
}

func LoadConfig(path string) (types.AppConfig, error) {
	var configChanged bool
	if path == "" {
		path = ConfigPath
	}
	// Remember the path so later persists land in the same file.
	ConfigPath = path

	cfg := defaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file doesn't exist, create with default values
			cfg.Fingerprint = generateRandomFingerprint()
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}

	if cfg.Fingerprint == "" {
		cfg.Fingerprint = generateRandomFingerprint()
		DefaultLogger.Infof("Generated random fingerprint")
		configChanged = true
	}

	// Save config if changed
	if configChanged {
		if writeErr := writeConfig(path, cfg); writeErr != nil {
			DefaultLogger.Warnf("Failed to update config file: %v", writeErr)
		}
	}

	CurrentConfig = cfg
	return cfg, nil
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}

// PersistAppConfig updates in-memory AppConfig and writes config.yaml only (settings API: config file only).
func PersistAppConfig(cfg *types.AppConfig) {
	if cfg == nil {
		return
	}
	CurrentConfig = *cfg
	if err := writeConfig(ConfigPath, CurrentConfig); err != nil {
		DefaultLogger.Warnf("Failed to persist config: %v", err)
	}
}
