package schema

import (
	"testing"
	"time"

	"github.com/Zahlii/godslr/camera"
)

func decodeDefaultTree(t *testing.T) *R6M2 {
	t.Helper()
	prof := &R6M2{}
	if err := camera.Decode(camera.DefaultSimTree(), prof); err != nil {
		t.Fatalf("failed to decode device tree: %v", err)
	}
	return prof
}

func TestDecodeFromDeviceTree(t *testing.T) {
	prof := decodeDefaultTree(t)
	if prof.Settings == nil || prof.Settings.CaptureTarget == nil || *prof.Settings.CaptureTarget != CaptureTargetRAM {
		t.Errorf("Expected capture target %q, got %+v", CaptureTargetRAM, prof.Settings)
	}
	if prof.ImageSettings == nil || prof.ImageSettings.ISO == nil || *prof.ImageSettings.ISO != "400" {
		t.Errorf("Expected iso 400, got %+v", prof.ImageSettings)
	}
	if prof.CaptureSettings == nil || prof.CaptureSettings.Aperture == nil || *prof.CaptureSettings.Aperture != "5.6" {
		t.Errorf("Expected aperture 5.6, got %+v", prof.CaptureSettings)
	}
	if prof.Actions == nil || prof.Actions.RemoteRelease == nil || *prof.Actions.RemoteRelease != ReleaseNone {
		t.Errorf("Expected the release action idle, got %+v", prof.Actions)
	}
}

func TestRawAndCardDetection(t *testing.T) {
	prof := decodeDefaultTree(t)
	if prof.IsRaw() {
		t.Error("Expected a JPEG-only format to not count as raw")
	}
	if prof.IsCardCapture() {
		t.Error("Expected internal RAM capture by default")
	}

	prof.ImageSettings.ImageFormat = Ptr("RAW + Large Fine JPEG")
	if !prof.IsRaw() {
		t.Error("Expected a RAW+JPEG format to count as raw")
	}
	prof.Settings.CaptureTarget = Ptr(CaptureTargetCard)
	if !prof.IsCardCapture() {
		t.Error("Expected memory card target to count as card capture")
	}

	empty := &R6M2{}
	if empty.IsRaw() || empty.IsCardCapture() {
		t.Error("Expected an empty profile to default to JPEG in RAM")
	}
}

func TestShutterActionsReturnCopies(t *testing.T) {
	base := decodeDefaultTree(t)
	pressed, ok := base.PressShutter().(*R6M2)
	if !ok {
		t.Fatal("Expected the press copy to keep its concrete type")
	}
	if pressed.Actions == nil || *pressed.Actions.RemoteRelease != ReleasePressFull {
		t.Errorf("Expected the copy to press the shutter, got %+v", pressed.Actions)
	}
	if *base.Actions.RemoteRelease != ReleaseNone {
		t.Errorf("Expected the receiver untouched, got %v", *base.Actions.RemoteRelease)
	}
	released := pressed.ReleaseShutter().(*R6M2)
	if *released.Actions.RemoteRelease != ReleaseFullOff {
		t.Errorf("Expected the copy to release the shutter, got %v", *released.Actions.RemoteRelease)
	}
	if *pressed.Actions.RemoteRelease != ReleasePressFull {
		t.Errorf("Expected the pressed copy untouched, got %v", *pressed.Actions.RemoteRelease)
	}
}

func TestFocusStepDirectionAndClamp(t *testing.T) {
	cases := []struct {
		distance int
		want     string
	}{
		{0, "None"},
		{-1, "Near 1"},
		{-2, "Near 2"},
		{-7, "Near 3"},
		{1, "Far 1"},
		{3, "Far 3"},
		{9, "Far 3"},
	}
	base := &R6M2{}
	for _, c := range cases {
		stepped := base.FocusStep(c.distance).(*R6M2)
		if got := *stepped.Actions.ManualFocusDrive; got != c.want {
			t.Errorf("FocusStep(%d): Expected %q, got %q", c.distance, c.want, got)
		}
	}
	if base.Actions != nil {
		t.Error("Expected the receiver untouched by focus steps")
	}
}

func TestCameraTime(t *testing.T) {
	prof := decodeDefaultTree(t)
	ts, ok := prof.CameraTime()
	if !ok {
		t.Fatal("Expected the device tree to carry a clock")
	}
	if want := time.Unix(1724572800, 0).UTC(); !ts.Equal(want) {
		t.Errorf("Expected camera time %s, got %s", want, ts)
	}
	if _, ok := (&R6M2{}).CameraTime(); ok {
		t.Error("Expected no clock on an empty profile")
	}
}

func TestCloneIsDeep(t *testing.T) {
	prof := decodeDefaultTree(t)
	cp := prof.Clone()
	*cp.ImageSettings.ISO = "3200"
	if *prof.ImageSettings.ISO != "400" {
		t.Errorf("Expected the original untouched after mutating a clone, got %v", *prof.ImageSettings.ISO)
	}
}
