package camera_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Zahlii/godslr/camera"
)

func newOpenSession(t *testing.T, opts camera.SimOptions) (*camera.Session, *camera.SimLink) {
	t.Helper()
	link := camera.NewSimLink(opts)
	sess := camera.NewSession(link)
	if err := sess.Open(); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess, link
}

func TestSessionStateErrors(t *testing.T) {
	sess := camera.NewSession(camera.NewSimLink(camera.SimOptions{}))
	if _, err := sess.ReadConfigTree(false); !errors.Is(err, camera.ErrClosed) {
		t.Errorf("Expected ErrClosed before open, got %v", err)
	}
	if err := sess.TriggerCapture(); !errors.Is(err, camera.ErrClosed) {
		t.Errorf("Expected ErrClosed before open, got %v", err)
	}
	if err := sess.Open(); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	if err := sess.Open(); !errors.Is(err, camera.ErrAlreadyOpen) {
		t.Errorf("Expected ErrAlreadyOpen on a second open, got %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("failed to close session: %v", err)
	}
	if _, err := sess.WaitForEvent(time.Millisecond); !errors.Is(err, camera.ErrClosed) {
		t.Errorf("Expected ErrClosed after close, got %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("Expected closing a closed session to be a no-op, got %v", err)
	}
}

func TestConfigTreeCacheIdempotence(t *testing.T) {
	sess, link := newOpenSession(t, camera.SimOptions{})
	first, err := sess.ReadConfigTree(false)
	if err != nil {
		t.Fatalf("failed to read config tree: %v", err)
	}
	second, err := sess.ReadConfigTree(false)
	if err != nil {
		t.Fatalf("failed to read config tree again: %v", err)
	}
	if first != second {
		t.Error("Expected the cached tree instance on the second read")
	}
	if got := link.Stats().TreeReads; got != 1 {
		t.Errorf("Expected 1 hardware read, got %d", got)
	}
	if _, err := sess.ReadConfigTree(true); err != nil {
		t.Fatalf("failed to force-refresh config tree: %v", err)
	}
	if got := link.Stats().TreeReads; got != 2 {
		t.Errorf("Expected forced refresh to read hardware again, got %d reads", got)
	}
}

func TestWriteFieldStagesUntilCommit(t *testing.T) {
	sess, link := newOpenSession(t, camera.SimOptions{})
	if err := sess.WriteField("iso", "800"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if v, _ := link.DeviceValue("iso"); v != "400" {
		t.Errorf("Expected device untouched before commit, got iso=%v", v)
	}
	if err := sess.Commit(); err != nil {
		t.Fatalf("failed to commit config: %v", err)
	}
	if v, _ := link.DeviceValue("iso"); v != "800" {
		t.Errorf("Expected iso 800 on the device after commit, got %v", v)
	}
	if got := link.Stats().TreePuts; got != 1 {
		t.Errorf("Expected a single config push, got %d", got)
	}
}

func TestWriteFieldValidation(t *testing.T) {
	sess, _ := newOpenSession(t, camera.SimOptions{})
	if err := sess.WriteField("no-such-field", "x"); !errors.Is(err, camera.ErrFieldUnknown) {
		t.Errorf("Expected ErrFieldUnknown, got %v", err)
	}
	if err := sess.WriteField("iso", 800); !errors.Is(err, camera.ErrDecode) {
		t.Errorf("Expected ErrDecode for an int on a radio field, got %v", err)
	}
	if err := sess.WriteField("iso", "999"); !errors.Is(err, camera.ErrChoice) {
		t.Errorf("Expected ErrChoice for a value outside the choices, got %v", err)
	}
}
