package device

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// fakeDevice serves a frame that is black on the left half and white on
// the right, so mirroring and compositing are visible in pixel checks.
type fakeDevice struct {
	frame    []byte
	captures int
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			c := color.RGBA{A: 255}
			if x >= 30 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	data, err := encodeJPEG(img, 95)
	if err != nil {
		t.Fatalf("failed to encode test frame: %v", err)
	}
	return &fakeDevice{frame: data}
}

func (f *fakeDevice) Name() string { return "fake" }

func (f *fakeDevice) Preview() ([]byte, error) { return f.frame, nil }

func (f *fakeDevice) Capture(destDir string) ([]string, error) {
	f.captures++
	dest := filepath.Join(destDir, "shot.jpg")
	if err := os.WriteFile(dest, f.frame, 0o644); err != nil {
		return nil, err
	}
	return []string{dest}, nil
}

func (f *fakeDevice) Close() error { return nil }

func writeOverlayPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create overlay file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode overlay: %v", err)
	}
	return path
}

func TestOverlayPassThroughWithoutOverlay(t *testing.T) {
	ov := NewOverlay(newFakeDevice(t), false)
	img, err := PreviewImage(ov)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if img.Bounds().Dx() != 60 || img.Bounds().Dy() != 40 {
		t.Errorf("Expected the frame geometry preserved, got %v", img.Bounds())
	}
	r, _, _, _ := img.At(5, 20).RGBA()
	if r>>8 > 40 {
		t.Errorf("Expected the left half dark without mirroring, got r=%d", r>>8)
	}
}

func TestOverlayCompositesOntoFrames(t *testing.T) {
	ov := NewOverlay(newFakeDevice(t), false)
	if err := ov.SetOverlay(writeOverlayPNG(t)); err != nil {
		t.Fatalf("failed to set overlay: %v", err)
	}
	if !ov.HasOverlay() {
		t.Fatal("Expected an active overlay")
	}
	img, err := PreviewImage(ov)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	// The opaque red overlay is scaled across the whole frame.
	r, g, _, _ := img.At(5, 20).RGBA()
	if r>>8 < 200 || g>>8 > 60 {
		t.Errorf("Expected red overlay pixels, got r=%d g=%d", r>>8, g>>8)
	}
	if ov.Placeholder() == nil {
		t.Error("Expected the rendered frame kept as placeholder")
	}
}

func TestOverlayClearRestoresPassThrough(t *testing.T) {
	ov := NewOverlay(newFakeDevice(t), false)
	if err := ov.SetOverlay(writeOverlayPNG(t)); err != nil {
		t.Fatalf("failed to set overlay: %v", err)
	}
	if err := ov.SetOverlay(""); err != nil {
		t.Fatalf("failed to clear overlay: %v", err)
	}
	if ov.HasOverlay() {
		t.Error("Expected the overlay cleared")
	}
}

func TestMirrorFlipsFrame(t *testing.T) {
	ov := NewOverlay(newFakeDevice(t), true)
	img, err := PreviewImage(ov)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	r, _, _, _ := img.At(5, 20).RGBA()
	if r>>8 < 200 {
		t.Errorf("Expected the left half bright after mirroring, got r=%d", r>>8)
	}
}

func TestOverlayCaptureWritesSibling(t *testing.T) {
	fake := newFakeDevice(t)
	ov := NewOverlay(fake, false)
	if err := ov.SetOverlay(writeOverlayPNG(t)); err != nil {
		t.Fatalf("failed to set overlay: %v", err)
	}
	dir := t.TempDir()
	paths, err := ov.Capture(dir)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Expected composited + original, got %v", paths)
	}
	if filepath.Base(paths[0]) != "shot_overlay.jpg" {
		t.Errorf("Expected the composited file first, got %v", paths)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Expected %s on disk: %v", p, err)
		}
	}
	if fake.captures != 1 {
		t.Errorf("Expected one inner capture, got %d", fake.captures)
	}
}

func TestSiblingName(t *testing.T) {
	if got := siblingName("/tmp/IMG_0001.JPG", "_overlay"); got != "/tmp/IMG_0001_overlay.JPG" {
		t.Errorf("Expected /tmp/IMG_0001_overlay.JPG, got %s", got)
	}
}

func TestCropThreeByTwo(t *testing.T) {
	wide := image.NewRGBA(image.Rect(0, 0, 100, 40))
	cropped := cropThreeByTwo(wide)
	if w := cropped.Bounds().Dx(); w != 60 {
		t.Errorf("Expected 60px wide after 3:2 crop, got %d", w)
	}
	narrow := image.NewRGBA(image.Rect(0, 0, 50, 40))
	if got := cropThreeByTwo(narrow); got.Bounds() != narrow.Bounds() {
		t.Errorf("Expected narrow frames untouched, got %v", got.Bounds())
	}
}
