package device

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/Zahlii/godslr/camera"
)

// frameSource adapts a Device to the preview stream.
type frameSource struct {
	dev Device
}

func (f frameSource) CapturePreview() ([]byte, error) { return f.dev.Preview() }

func netcamFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	data, err := encodeJPEG(image.NewRGBA(image.Rect(0, 0, w, h)), 95)
	if err != nil {
		t.Fatalf("failed to encode test frame: %v", err)
	}
	return data
}

func TestNetcamPreviewFetchesSnapshot(t *testing.T) {
	frame := netcamFrame(t, 60, 40)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(frame)
	}))
	defer srv.Close()

	cam := NewNetcam("testcam", srv.URL)
	got, err := cam.Preview()
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Error("Expected the snapshot bytes passed through unchanged")
	}
}

func TestNetcamBusyEndpointIsNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "re-exposing", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cam := NewNetcam("testcam", srv.URL)
	if _, err := cam.Preview(); !errors.Is(err, camera.ErrNotReady) {
		t.Errorf("Expected ErrNotReady for a busy endpoint, got %v", err)
	}
}

func TestStreamSkipsBusyNetcamFrames(t *testing.T) {
	frame := netcamFrame(t, 60, 40)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "re-exposing", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(frame)
	}))
	defer srv.Close()

	st := camera.NewStream(frameSource{dev: NewNetcam("testcam", srv.URL)}, camera.StreamOptions{MaxFrames: 1})
	got, err := st.Next(context.Background())
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Error("Expected the first ready frame from the stream")
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("Expected 2 busy answers skipped before the frame, got %d fetches", n)
	}
}

func TestNetcamCaptureCropsToThreeByTwo(t *testing.T) {
	// A 90x40 source frame crops to 60x40.
	frame := netcamFrame(t, 90, 40)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(frame)
	}))
	defer srv.Close()

	cam := NewNetcam("testcam", srv.URL)
	paths, err := cam.Capture(t.TempDir())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("Expected one stored file, got %v", paths)
	}
	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("failed to open capture: %v", err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode capture: %v", err)
	}
	if img.Bounds().Dx() != 60 || img.Bounds().Dy() != 40 {
		t.Errorf("Expected a 60x40 crop, got %v", img.Bounds())
	}
}
