package camera_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/schema"
)

// fastPolicy keeps protocol timing tight enough for tests.
func fastPolicy() camera.Policy {
	return camera.Policy{
		EventPollSlice:  20 * time.Millisecond,
		CollectCeiling:  500 * time.Millisecond,
		TriggerAttempts: 3,
		RetryBaseDelay:  5 * time.Millisecond,
	}
}

func newCaptureRig(t *testing.T, opts camera.SimOptions, policy camera.Policy) (*camera.Coordinator, *camera.SimLink) {
	t.Helper()
	if opts.TriggerLatency == 0 {
		opts.TriggerLatency = 10 * time.Millisecond
	}
	if opts.CompleteAfter == 0 {
		opts.CompleteAfter = 5 * time.Millisecond
	}
	sess, link := newOpenSession(t, opts)
	sy := camera.NewSynchronizer(sess, schema.NewR6M2)
	return camera.NewCoordinator(sess, sy, policy), link
}

func TestCaptureToDownloadsAndCleansUp(t *testing.T) {
	coord, link := newCaptureRig(t, camera.SimOptions{}, fastPolicy())
	dest := filepath.Join(t.TempDir(), "shot.jpg")
	res, err := coord.CaptureTo(dest, camera.CaptureOptions{})
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if len(res.Paths) != 1 || res.Paths[0] != dest {
		t.Fatalf("Expected a single image at %s, got %v", dest, res.Paths)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		t.Errorf("Expected a non-empty file at %s, got %v/%v", dest, info, err)
	}
	if got := link.Stats().Triggers; got != 1 {
		t.Errorf("Expected 1 trigger, got %d", got)
	}
	if files := link.DeviceFiles(); len(files) != 0 {
		t.Errorf("Expected device storage emptied after download, got %v", files)
	}
}

func TestCaptureToValidatesExtensionBeforeHardware(t *testing.T) {
	coord, link := newCaptureRig(t, camera.SimOptions{}, fastPolicy())
	_, err := coord.CaptureTo(filepath.Join(t.TempDir(), "shot.cr3"), camera.CaptureOptions{})
	if !errors.Is(err, camera.ErrValidation) {
		t.Fatalf("Expected ErrValidation for a raw path on a JPEG config, got %v", err)
	}
	if got := link.Stats().Triggers; got != 0 {
		t.Errorf("Expected no hardware interaction, got %d triggers", got)
	}

	rawTree := camera.DefaultSimTree()
	if err := rawTree.Find("imageformat").SetValue("RAW"); err != nil {
		t.Fatalf("failed to prepare raw tree: %v", err)
	}
	coord, link = newCaptureRig(t, camera.SimOptions{Tree: rawTree}, fastPolicy())
	_, err = coord.CaptureTo(filepath.Join(t.TempDir(), "shot.jpg"), camera.CaptureOptions{})
	if !errors.Is(err, camera.ErrValidation) {
		t.Fatalf("Expected ErrValidation for a JPEG path on a raw config, got %v", err)
	}
	if got := link.Stats().Triggers; got != 0 {
		t.Errorf("Expected no hardware interaction, got %d triggers", got)
	}
}

func TestCaptureCompleteWithoutFileIsProtocolViolation(t *testing.T) {
	policy := fastPolicy()
	policy.TriggerAttempts = 2
	coord, link := newCaptureRig(t, camera.SimOptions{CompleteWithoutFile: true}, policy)
	_, err := coord.CaptureTo(filepath.Join(t.TempDir(), "shot.jpg"), camera.CaptureOptions{})
	if !errors.Is(err, camera.ErrNoCaptureEvent) {
		t.Fatalf("Expected ErrNoCaptureEvent, got %v", err)
	}
	if got := link.Stats().Triggers; got != 2 {
		t.Errorf("Expected the retry policy to re-trigger, got %d triggers", got)
	}
}

func TestCaptureRetriesFlakyTrigger(t *testing.T) {
	policy := fastPolicy()
	policy.CollectCeiling = 150 * time.Millisecond
	coord, link := newCaptureRig(t, camera.SimOptions{FailTriggers: 1}, policy)
	res, err := coord.CaptureTo(filepath.Join(t.TempDir(), "shot.jpg"), camera.CaptureOptions{})
	if err != nil {
		t.Fatalf("capture failed despite retries: %v", err)
	}
	if len(res.Paths) != 1 {
		t.Fatalf("Expected one image, got %v", res.Paths)
	}
	if got := link.Stats().Triggers; got != 2 {
		t.Errorf("Expected 2 triggers (1 flaky + 1 good), got %d", got)
	}
}

func TestZeroByteImageDroppedWithWarning(t *testing.T) {
	coord, link := newCaptureRig(t, camera.SimOptions{
		FilesPerTrigger: 2,
		ShotSizes:       []int{0, 1},
	}, fastPolicy())
	dir := t.TempDir()
	dest := filepath.Join(dir, "shot.jpg")
	res, err := coord.CaptureTo(dest, camera.CaptureOptions{})
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if len(res.Paths) != 1 {
		t.Fatalf("Expected exactly the one usable image, got %v", res.Paths)
	}
	if res.Paths[0] == dest {
		t.Errorf("Expected the empty primary file to be excluded, got %v", res.Paths)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("Expected the empty local file removed, stat returned %v", err)
	}
	if files := link.DeviceFiles(); len(files) != 0 {
		t.Errorf("Expected both files deleted from the device, got %v", files)
	}
}

func TestCaptureFailsWhenAllImagesEmpty(t *testing.T) {
	coord, _ := newCaptureRig(t, camera.SimOptions{ShotSizes: []int{0}}, fastPolicy())
	dest := filepath.Join(t.TempDir(), "shot.jpg")
	_, err := coord.CaptureTo(dest, camera.CaptureOptions{})
	if !errors.Is(err, camera.ErrEmptyCapture) {
		t.Fatalf("Expected ErrEmptyCapture, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("Expected the empty local file removed, stat returned %v", err)
	}
}

func TestCaptureBulbPressAndRelease(t *testing.T) {
	coord, link := newCaptureRig(t, camera.SimOptions{}, fastPolicy())
	res, err := coord.CaptureBulb(t.TempDir(), 80*time.Millisecond, camera.CaptureOptions{})
	if err != nil {
		t.Fatalf("bulb capture failed: %v", err)
	}
	if len(res.Paths) != 1 {
		t.Fatalf("Expected one exposure, got %v", res.Paths)
	}
	stats := link.Stats()
	if stats.Presses != 1 || stats.Releases != 1 {
		t.Errorf("Expected exactly one press and one release, got %d/%d", stats.Presses, stats.Releases)
	}
	if stats.Hold < 80*time.Millisecond {
		t.Errorf("Expected the shutter held for at least 80ms, got %s", stats.Hold)
	}
}

func TestBulbReleaseWriteAttemptedAfterPressFailure(t *testing.T) {
	coord, link := newCaptureRig(t, camera.SimOptions{FailPuts: 1}, fastPolicy())
	_, err := coord.CaptureBulb(t.TempDir(), 50*time.Millisecond, camera.CaptureOptions{})
	if err == nil {
		t.Fatal("Expected the failed press to surface an error")
	}
	stats := link.Stats()
	if stats.Presses != 0 {
		t.Errorf("Expected the press to never reach the device, got %d", stats.Presses)
	}
	// The release write must still have gone out.
	if stats.TreePuts != 1 {
		t.Errorf("Expected the release push to reach the device, got %d pushes", stats.TreePuts)
	}
}

func TestBurstCollectsWhileShutterHeld(t *testing.T) {
	policy := camera.Policy{
		EventPollSlice:  100 * time.Millisecond,
		CollectCeiling:  500 * time.Millisecond,
		TriggerAttempts: 1,
		RetryBaseDelay:  5 * time.Millisecond,
	}
	coord, link := newCaptureRig(t, camera.SimOptions{
		BurstInterval: 250 * time.Millisecond,
		CompleteAfter: 20 * time.Millisecond,
	}, policy)
	res, err := coord.CaptureBurst(t.TempDir(), time.Second, camera.CaptureOptions{})
	if err != nil {
		t.Fatalf("burst capture failed: %v", err)
	}
	if len(res.Paths) != 4 {
		t.Fatalf("Expected 4 images from a 1s hold at 250ms cadence, got %d", len(res.Paths))
	}
	stats := link.Stats()
	if stats.DeliveredBeforeRelease != 4 {
		t.Errorf("Expected all 4 images collected before release, got %d", stats.DeliveredBeforeRelease)
	}
	if stats.Hold < time.Second {
		t.Errorf("Expected the shutter held for the full second, got %s", stats.Hold)
	}
	// Overshoot is bounded by one poll slice plus scheduling slack.
	if stats.Hold > time.Second+policy.EventPollSlice+80*time.Millisecond {
		t.Errorf("Expected release within one poll slice of the hold, got %s", stats.Hold)
	}
}

func TestFocusStackStepsBetweenFrames(t *testing.T) {
	coord, link := newCaptureRig(t, camera.SimOptions{}, fastPolicy())
	dir := t.TempDir()
	res, err := coord.CaptureFocusStack(dir, 2, -2, camera.CaptureOptions{})
	if err != nil {
		t.Fatalf("focus stack failed: %v", err)
	}
	if len(res.Paths) != 2 {
		t.Fatalf("Expected 2 frames, got %v", res.Paths)
	}
	for i, want := range []string{"stack_000.jpg", "stack_001.jpg"} {
		if filepath.Base(res.Paths[i]) != want {
			t.Errorf("Expected frame %d named %s, got %s", i, want, res.Paths[i])
		}
	}
	moves := link.Stats().FocusMoves
	if len(moves) != 2 {
		t.Fatalf("Expected 2 focus drives, got %v", moves)
	}
	for _, m := range moves {
		if m != "Near 2" {
			t.Errorf("Expected focus drive Near 2, got %s", m)
		}
	}
}

func TestKeepOnDeviceRequiresCardCapture(t *testing.T) {
	cardTree := camera.DefaultSimTree()
	if err := cardTree.Find("capturetarget").SetValue(schema.CaptureTargetCard); err != nil {
		t.Fatalf("failed to prepare card tree: %v", err)
	}
	coord, link := newCaptureRig(t, camera.SimOptions{Tree: cardTree}, fastPolicy())
	if _, err := coord.CaptureTo(filepath.Join(t.TempDir(), "keep.jpg"), camera.CaptureOptions{KeepOnDevice: true}); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if files := link.DeviceFiles(); len(files) != 1 {
		t.Errorf("Expected the image kept on the card, got %v", files)
	}

	// Internal RAM capture ignores the keep request.
	coord, link = newCaptureRig(t, camera.SimOptions{}, fastPolicy())
	if _, err := coord.CaptureTo(filepath.Join(t.TempDir(), "ram.jpg"), camera.CaptureOptions{KeepOnDevice: true}); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if files := link.DeviceFiles(); len(files) != 0 {
		t.Errorf("Expected RAM-held images always deleted, got %v", files)
	}
}

func TestCaptureToWithTemporaryConfig(t *testing.T) {
	coord, link := newCaptureRig(t, camera.SimOptions{}, fastPolicy())
	temp := &schema.R6M2{
		ImageSettings: &schema.R6M2ImageSettings{ISO: schema.Ptr("1600")},
	}
	res, err := coord.CaptureToWith(temp, filepath.Join(t.TempDir(), "shot.jpg"), camera.CaptureOptions{})
	if err != nil {
		t.Fatalf("capture with temporary config failed: %v", err)
	}
	if len(res.Paths) != 1 {
		t.Fatalf("Expected one image, got %v", res.Paths)
	}
	if v, _ := link.DeviceValue("iso"); v != "400" {
		t.Errorf("Expected iso restored after the capture, got %v", v)
	}
}
