// Package schema carries the per-model typed configuration profiles.
// Field names and section layout mirror the widget names the camera
// driver reports, one struct per config section, every field optional.
// A nil field means "not set, do not touch".
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zahlii/godslr/camera"
)

// Literal values of the Canon remote release and capture target fields.
const (
	ReleaseNone      = "None"
	ReleasePressHalf = "Press Half"
	ReleasePressFull = "Press Full"
	ReleaseHalfOff   = "Release Half"
	ReleaseFullOff   = "Release Full"

	FocusDriveNone = "None"

	CaptureTargetRAM  = "Internal RAM"
	CaptureTargetCard = "Memory card"
)

// Ptr returns a pointer to v, for building sparse desired configs.
func Ptr[T any](v T) *T {
	return &v
}

// R6M2 is the typed configuration profile of a Canon EOS R6 Mark II
// class body. Only the fields this project drives are mapped; the
// device exposes many more, which the decoder ignores.
type R6M2 struct {
	Actions         *R6M2Actions         `gp:"actions" json:"actions,omitempty"`
	Settings        *R6M2Settings        `gp:"settings" json:"settings,omitempty"`
	Status          *R6M2Status          `gp:"status" json:"status,omitempty"`
	ImageSettings   *R6M2ImageSettings   `gp:"imgsettings" json:"imgsettings,omitempty"`
	CaptureSettings *R6M2CaptureSettings `gp:"capturesettings" json:"capturesettings,omitempty"`
}

// R6M2Actions are the one-shot action fields. Their committed values
// never read back; the device snaps them to "None".
type R6M2Actions struct {
	RemoteRelease    *string `gp:"eosremoterelease" json:"eosremoterelease,omitempty"`
	ManualFocusDrive *string `gp:"manualfocusdrive" json:"manualfocusdrive,omitempty"`
	AutoFocusDrive   *int    `gp:"autofocusdrive" json:"autofocusdrive,omitempty"`
	Viewfinder       *int    `gp:"viewfinder" json:"viewfinder,omitempty"`
}

type R6M2Settings struct {
	CaptureTarget *string `gp:"capturetarget" json:"capturetarget,omitempty"`
	DateTimeUTC   *int    `gp:"datetimeutc" json:"datetimeutc,omitempty"`
	AutoPowerOff  *string `gp:"autopoweroff" json:"autopoweroff,omitempty"`
}

type R6M2Status struct {
	SerialNumber *string `gp:"serialnumber" json:"serialnumber,omitempty"`
	BatteryLevel *string `gp:"batterylevel" json:"batterylevel,omitempty"`
	LensName     *string `gp:"lensname" json:"lensname,omitempty"`
}

type R6M2ImageSettings struct {
	ISO          *string `gp:"iso" json:"iso,omitempty"`
	ImageFormat  *string `gp:"imageformat" json:"imageformat,omitempty"`
	WhiteBalance *string `gp:"whitebalance" json:"whitebalance,omitempty"`
}

type R6M2CaptureSettings struct {
	Aperture             *string `gp:"aperture" json:"aperture,omitempty"`
	ShutterSpeed         *string `gp:"shutterspeed" json:"shutterspeed,omitempty"`
	DriveMode            *string `gp:"drivemode" json:"drivemode,omitempty"`
	ExposureCompensation *string `gp:"exposurecompensation" json:"exposurecompensation,omitempty"`
	FocusMode            *string `gp:"focusmode" json:"focusmode,omitempty"`
}

// NewR6M2 allocates an empty profile. It is the factory handed to the
// config synchronizer.
func NewR6M2() camera.Profile {
	return &R6M2{}
}

// IsRaw reports whether any configured image format produces raw files.
func (c *R6M2) IsRaw() bool {
	if c.ImageSettings == nil || c.ImageSettings.ImageFormat == nil {
		return false
	}
	return strings.Contains(*c.ImageSettings.ImageFormat, "RAW")
}

// IsCardCapture reports whether captures go to the memory card rather
// than internal RAM.
func (c *R6M2) IsCardCapture() bool {
	return c.Settings != nil &&
		c.Settings.CaptureTarget != nil &&
		*c.Settings.CaptureTarget == CaptureTargetCard
}

// PressShutter returns a copy with the full shutter press action set.
func (c *R6M2) PressShutter() camera.Profile {
	cp := c.Clone()
	cp.ensureActions().RemoteRelease = Ptr(ReleasePressFull)
	return cp
}

// ReleaseShutter returns a copy with the full shutter release action set.
func (c *R6M2) ReleaseShutter() camera.Profile {
	cp := c.Clone()
	cp.ensureActions().RemoteRelease = Ptr(ReleaseFullOff)
	return cp
}

// FocusStep returns a copy with a manual focus drive over the signed
// distance set. Negative distances focus nearer, positive further; the
// magnitude clamps to the three step sizes the device knows.
func (c *R6M2) FocusStep(distance int) camera.Profile {
	cp := c.Clone()
	if distance == 0 {
		cp.ensureActions().ManualFocusDrive = Ptr(FocusDriveNone)
		return cp
	}
	dir := "Far"
	if distance < 0 {
		dir = "Near"
		distance = -distance
	}
	if distance > 3 {
		distance = 3
	}
	cp.ensureActions().ManualFocusDrive = Ptr(fmt.Sprintf("%s %d", dir, distance))
	return cp
}

// CameraTime returns the device clock when the profile carries it.
func (c *R6M2) CameraTime() (time.Time, bool) {
	if c.Settings == nil || c.Settings.DateTimeUTC == nil {
		return time.Time{}, false
	}
	return time.Unix(int64(*c.Settings.DateTimeUTC), 0).UTC(), true
}

// Clone returns a deep copy.
func (c *R6M2) Clone() *R6M2 {
	return &R6M2{
		Actions:         c.Actions.clone(),
		Settings:        c.Settings.clone(),
		Status:          c.Status.clone(),
		ImageSettings:   c.ImageSettings.clone(),
		CaptureSettings: c.CaptureSettings.clone(),
	}
}

func (c *R6M2) ensureActions() *R6M2Actions {
	if c.Actions == nil {
		c.Actions = &R6M2Actions{}
	}
	return c.Actions
}

func (a *R6M2Actions) clone() *R6M2Actions {
	if a == nil {
		return nil
	}
	return &R6M2Actions{
		RemoteRelease:    clonePtr(a.RemoteRelease),
		ManualFocusDrive: clonePtr(a.ManualFocusDrive),
		AutoFocusDrive:   clonePtr(a.AutoFocusDrive),
		Viewfinder:       clonePtr(a.Viewfinder),
	}
}

func (s *R6M2Settings) clone() *R6M2Settings {
	if s == nil {
		return nil
	}
	return &R6M2Settings{
		CaptureTarget: clonePtr(s.CaptureTarget),
		DateTimeUTC:   clonePtr(s.DateTimeUTC),
		AutoPowerOff:  clonePtr(s.AutoPowerOff),
	}
}

func (s *R6M2Status) clone() *R6M2Status {
	if s == nil {
		return nil
	}
	return &R6M2Status{
		SerialNumber: clonePtr(s.SerialNumber),
		BatteryLevel: clonePtr(s.BatteryLevel),
		LensName:     clonePtr(s.LensName),
	}
}

func (s *R6M2ImageSettings) clone() *R6M2ImageSettings {
	if s == nil {
		return nil
	}
	return &R6M2ImageSettings{
		ISO:          clonePtr(s.ISO),
		ImageFormat:  clonePtr(s.ImageFormat),
		WhiteBalance: clonePtr(s.WhiteBalance),
	}
}

func (s *R6M2CaptureSettings) clone() *R6M2CaptureSettings {
	if s == nil {
		return nil
	}
	return &R6M2CaptureSettings{
		Aperture:             clonePtr(s.Aperture),
		ShutterSpeed:         clonePtr(s.ShutterSpeed),
		DriveMode:            clonePtr(s.DriveMode),
		ExposureCompensation: clonePtr(s.ExposureCompensation),
		FocusMode:            clonePtr(s.FocusMode),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
