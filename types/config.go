package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Alias        string         `yaml:"alias" json:"alias"`
	Fingerprint  string         `yaml:"fingerprint" json:"fingerprint"`
	Port         int            `yaml:"port" json:"port"`
	ImageFolder  string         `yaml:"imageFolder" json:"imageFolder"`
	LayoutFolder string         `yaml:"layoutFolder" json:"layoutFolder"`
	Camera       CameraConfig   `yaml:"camera" json:"camera"`
	Booth        BoothConfig    `yaml:"booth" json:"booth"`
	Printer      PrinterConfig  `yaml:"printer" json:"printer"`
	Announce     AnnounceConfig `yaml:"announce" json:"announce"`
	Button       ButtonConfig   `yaml:"button" json:"button"`
}

// CameraConfig selects and tunes the capture backend.
type CameraConfig struct {
	// Simulated swaps the real camera for the built-in simulator.
	Simulated bool `yaml:"simulated" json:"simulated"`
	// NetcamURL, when set, uses an HTTP snapshot camera instead of a
	// tethered one.
	NetcamURL string `yaml:"netcamUrl,omitempty" json:"netcamUrl,omitempty"`
	// KeepOnDevice leaves captures on the memory card after download.
	// Only honored when the camera writes to the card.
	KeepOnDevice bool `yaml:"keepOnDevice" json:"keepOnDevice"`
	// PreviewMaxFPS caps the live preview frame rate. Zero means
	// unthrottled.
	PreviewMaxFPS float64 `yaml:"previewMaxFps" json:"previewMaxFps"`
	// PreviewMaxSeconds ends a preview stream after this long. Zero
	// means unbounded.
	PreviewMaxSeconds float64 `yaml:"previewMaxSeconds" json:"previewMaxSeconds"`
}

// BoothConfig holds the kiosk settings, served as-is to the booth UI.
type BoothConfig struct {
	CountdownCaptureSeconds int    `yaml:"countdownCaptureSeconds" json:"countdown_capture_seconds"`
	InactivityReturnSeconds int    `yaml:"inactivityReturnSeconds" json:"inactivity_return_seconds"`
	BoothTitle              string `yaml:"boothTitle" json:"booth_title"`
	DefaultPrinter          string `yaml:"defaultPrinter" json:"default_printer"`
	FolderName              string `yaml:"folderName" json:"folder_name"`
	MirrorImage             bool   `yaml:"mirrorImage" json:"mirror_image"`
}

// PrinterConfig tunes print jobs. The target printer comes from
// BoothConfig so the UI can show it.
type PrinterConfig struct {
	// Border is the white border width in pixels added before printing.
	Border int `yaml:"border" json:"border"`
	// Landscape rotates jobs to landscape unless a request overrides it.
	Landscape bool `yaml:"landscape" json:"landscape"`
}

// AnnounceConfig controls how the server advertises itself on the LAN.
type AnnounceConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	Multicast    bool   `yaml:"multicast" json:"multicast"`
	MDNS         bool   `yaml:"mdns" json:"mdns"`
	MQTTBroker   string `yaml:"mqttBroker,omitempty" json:"mqttBroker,omitempty"`
	MQTTUsername string `yaml:"mqttUsername,omitempty" json:"mqttUsername,omitempty"`
	MQTTPassword string `yaml:"mqttPassword,omitempty" json:"-"`
}

// ButtonConfig wires a physical shutter button on a GPIO pin.
type ButtonConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Pin is the BCM pin number.
	Pin int `yaml:"pin" json:"pin"`
	// MockGPIO uses a fake pin driver for development machines.
	MockGPIO bool `yaml:"mockGpio" json:"mockGpio"`
}

// ConfigPatchRequest carries a partial update of the editable settings.
// Nil fields are untouched. Changes persist to config.yaml; folder and
// port changes take effect on the next start.
type ConfigPatchRequest struct {
	Alias                   *string `json:"alias,omitempty"`
	Port                    *int    `json:"port,omitempty"`
	CountdownCaptureSeconds *int    `json:"countdown_capture_seconds,omitempty"`
	InactivityReturnSeconds *int    `json:"inactivity_return_seconds,omitempty"`
	BoothTitle              *string `json:"booth_title,omitempty"`
	DefaultPrinter          *string `json:"default_printer,omitempty"`
	FolderName              *string `json:"folder_name,omitempty"`
	MirrorImage             *bool   `json:"mirror_image,omitempty"`
	PrintBorder             *int    `json:"print_border,omitempty"`
	PrintLandscape          *bool   `json:"print_landscape,omitempty"`
}
