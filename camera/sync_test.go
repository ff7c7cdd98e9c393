package camera_test

import (
	"errors"
	"testing"

	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/schema"
)

func newSyncRig(t *testing.T, opts camera.SimOptions) (*camera.Synchronizer, *camera.SimLink) {
	t.Helper()
	sess, link := newOpenSession(t, opts)
	return camera.NewSynchronizer(sess, schema.NewR6M2), link
}

func TestApplyWritesOnlyDifferingSetFields(t *testing.T) {
	sy, link := newSyncRig(t, camera.SimOptions{})
	desired := &schema.R6M2{
		ImageSettings: &schema.R6M2ImageSettings{ISO: schema.Ptr("800")},
		// Explicitly set but equal to the live value: compared, not written.
		CaptureSettings: &schema.R6M2CaptureSettings{Aperture: schema.Ptr("5.6")},
	}
	changed, err := sy.Apply(desired, camera.ApplyOptions{})
	if err != nil {
		t.Fatalf("failed to apply config: %v", err)
	}
	want := []camera.FieldRef{{Section: "imgsettings", Name: "iso"}}
	if len(changed) != 1 || changed[0] != want[0] {
		t.Errorf("Expected changed set %v, got %v", want, changed)
	}
	if v, _ := link.DeviceValue("iso"); v != "800" {
		t.Errorf("Expected iso 800 on device, got %v", v)
	}
	if v, _ := link.DeviceValue("aperture"); v != "5.6" {
		t.Errorf("Expected aperture untouched, got %v", v)
	}
	if got := link.Stats().TreePuts; got != 1 {
		t.Errorf("Expected one commit round-trip, got %d", got)
	}
}

func TestApplyWithNothingToChange(t *testing.T) {
	sy, link := newSyncRig(t, camera.SimOptions{})
	desired := &schema.R6M2{
		ImageSettings: &schema.R6M2ImageSettings{ISO: schema.Ptr("400")},
	}
	changed, err := sy.Apply(desired, camera.ApplyOptions{})
	if err != nil {
		t.Fatalf("failed to apply config: %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("Expected empty changed set, got %v", changed)
	}
	if got := link.Stats().TreePuts; got != 0 {
		t.Errorf("Expected no hardware push without changes, got %d", got)
	}
}

func TestApplyRestrictedToFields(t *testing.T) {
	sy, link := newSyncRig(t, camera.SimOptions{})
	desired := &schema.R6M2{
		ImageSettings:   &schema.R6M2ImageSettings{ISO: schema.Ptr("1600")},
		CaptureSettings: &schema.R6M2CaptureSettings{Aperture: schema.Ptr("8")},
	}
	only := []camera.FieldRef{{Section: "capturesettings", Name: "aperture"}}
	changed, err := sy.Apply(desired, camera.ApplyOptions{Only: only})
	if err != nil {
		t.Fatalf("failed to apply config: %v", err)
	}
	if len(changed) != 1 || changed[0] != only[0] {
		t.Errorf("Expected only the aperture change, got %v", changed)
	}
	if v, _ := link.DeviceValue("iso"); v != "400" {
		t.Errorf("Expected iso excluded by the restriction, got %v", v)
	}
	if v, _ := link.DeviceValue("aperture"); v != "8" {
		t.Errorf("Expected aperture 8, got %v", v)
	}
}

func TestApplyUnknownFieldFails(t *testing.T) {
	tree := camera.DefaultSimTree()
	img := tree.Find("imgsettings")
	for i, c := range img.Children {
		if c.Name == "whitebalance" {
			img.Children = append(img.Children[:i], img.Children[i+1:]...)
			break
		}
	}
	sy, link := newSyncRig(t, camera.SimOptions{Tree: tree})
	desired := &schema.R6M2{
		ImageSettings: &schema.R6M2ImageSettings{WhiteBalance: schema.Ptr("Shade")},
	}
	if _, err := sy.Apply(desired, camera.ApplyOptions{}); !errors.Is(err, camera.ErrFieldUnknown) {
		t.Errorf("Expected ErrFieldUnknown for a field the device lacks, got %v", err)
	}
	if got := link.Stats().TreePuts; got != 0 {
		t.Errorf("Expected no push after a failed staging, got %d", got)
	}
}

func TestWithRollbackRestoresExactlyChangedFields(t *testing.T) {
	sy, link := newSyncRig(t, camera.SimOptions{})
	temp := &schema.R6M2{
		ImageSettings:   &schema.R6M2ImageSettings{ISO: schema.Ptr("1600")},
		CaptureSettings: &schema.R6M2CaptureSettings{ShutterSpeed: schema.Ptr("1/250")},
	}
	err := sy.WithRollback(temp, func() error {
		if v, _ := link.DeviceValue("iso"); v != "1600" {
			t.Errorf("Expected iso 1600 inside the context, got %v", v)
		}
		if v, _ := link.DeviceValue("shutterspeed"); v != "1/250" {
			t.Errorf("Expected shutterspeed 1/250 inside the context, got %v", v)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("scoped config context failed: %v", err)
	}
	if v, _ := link.DeviceValue("iso"); v != "400" {
		t.Errorf("Expected iso restored to 400, got %v", v)
	}
	if v, _ := link.DeviceValue("shutterspeed"); v != "1/125" {
		t.Errorf("Expected shutterspeed restored to 1/125, got %v", v)
	}
	if v, _ := link.DeviceValue("aperture"); v != "5.6" {
		t.Errorf("Expected aperture never touched, got %v", v)
	}
	// One push in, one push back.
	if got := link.Stats().TreePuts; got != 2 {
		t.Errorf("Expected 2 hardware pushes, got %d", got)
	}
}

func TestWithRollbackRestoresOnError(t *testing.T) {
	sy, link := newSyncRig(t, camera.SimOptions{})
	boom := errors.New("capture blew up")
	temp := &schema.R6M2{
		ImageSettings: &schema.R6M2ImageSettings{ISO: schema.Ptr("3200")},
	}
	err := sy.WithRollback(temp, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the operation error to propagate, got %v", err)
	}
	if v, _ := link.DeviceValue("iso"); v != "400" {
		t.Errorf("Expected iso restored after error, got %v", v)
	}
}

func TestWithRollbackWithoutChanges(t *testing.T) {
	sy, link := newSyncRig(t, camera.SimOptions{})
	temp := &schema.R6M2{
		ImageSettings: &schema.R6M2ImageSettings{ISO: schema.Ptr("400")},
	}
	if err := sy.WithRollback(temp, func() error { return nil }); err != nil {
		t.Fatalf("scoped config context failed: %v", err)
	}
	if got := link.Stats().TreePuts; got != 0 {
		t.Errorf("Expected no pushes when nothing changed, got %d", got)
	}
}
