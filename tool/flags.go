package tool

import "flag"

// Config holds runtime overrides from CLI flags.
type Config struct {
	Log                      string
	UseConfigPath            string
	UsePort                  int
	UseAlias                 string
	UseSimulated             bool
	UseNetcamURL             string
	UseImageFolder           string
	UseMulticastAddress      string
	UseMulticastPort         int
	UseReferNetworkInterface string // fixes when using virtual network interface. e.g. Clash TUN.
	UseCountdown             int
	UseInactivity            int
	UseTitle                 string
	UsePrinter               string
	UseFolder                string
	UseMirror                bool
	SkipAnnounce             bool
	SkipNotify               bool
}

// SetFlags parses CLI flags and returns the override config.
// The booth-facing flags (countdown, inactivity, title, printer,
// folder, mirror) override the booth section of the config file.
func SetFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override HTTP port")
	flag.StringVar(&cfg.UseAlias, "useAlias", "", "specify alias for the server")
	flag.BoolVar(&cfg.UseSimulated, "useSimulated", false, "use the built-in camera simulator instead of real hardware")
	flag.StringVar(&cfg.UseNetcamURL, "useNetcamUrl", "", "use an HTTP snapshot camera at this URL instead of a tethered one")
	flag.StringVar(&cfg.UseImageFolder, "useImageFolder", "", "override the base image folder")
	flag.StringVar(&cfg.UseMulticastAddress, "useMulticastAddress", "", "override multicast address")
	flag.IntVar(&cfg.UseMulticastPort, "useMulticastPort", 0, "override multicast port")
	flag.StringVar(&cfg.UseReferNetworkInterface, "useReferNetworkInterface", "*", "specify network interface (e.g., 'en0', 'eth0') or '*' for all interfaces")
	flag.IntVar(&cfg.UseCountdown, "countdown", 0, "countdown seconds before capture")
	flag.IntVar(&cfg.UseInactivity, "inactivity", 0, "seconds of inactivity before returning to start")
	flag.StringVar(&cfg.UseTitle, "title", "", "title of the photo booth")
	flag.StringVar(&cfg.UsePrinter, "printer", "", "default printer for booth prints")
	flag.StringVar(&cfg.UseFolder, "folder", "", "name of the event folder under the image folder")
	flag.BoolVar(&cfg.UseMirror, "mirror", false, "mirror the image (except for RAW files)")
	flag.BoolVar(&cfg.SkipAnnounce, "skipAnnounce", false, "do not announce the server on the LAN")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "disable the notify WebSocket")
	flag.Parse()
	return cfg
}
