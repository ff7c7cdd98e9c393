package booth

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zahlii/godslr/device"
)

type stubDevice struct {
	frame []byte
}

func (s *stubDevice) Name() string { return "stub" }

func (s *stubDevice) Preview() ([]byte, error) { return s.frame, nil }

func (s *stubDevice) Capture(destDir string) ([]string, error) {
	dest := filepath.Join(destDir, "shot.jpg")
	if err := os.WriteFile(dest, s.frame, 0o644); err != nil {
		return nil, err
	}
	return []string{dest}, nil
}

func (s *stubDevice) Close() error { return nil }

func solidJPEG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestEngine(t *testing.T) (*Engine, string, string) {
	t.Helper()
	layoutDir := t.TempDir()
	imageDir := filepath.Join(t.TempDir(), "pics")
	frame := solidJPEG(t, 40, 20, color.RGBA{R: 255, A: 255})
	dev := device.NewOverlay(&stubDevice{frame: frame}, false)
	eng, err := NewEngine(layoutDir, imageDir, dev)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return eng, layoutDir, imageDir
}

func writeLayoutPNG(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 10; x++ {
			img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to create layout image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode layout image: %v", err)
	}
}

func TestAvailableLayouts(t *testing.T) {
	eng, layoutDir, _ := newTestEngine(t)
	catalog := `[{"name":"Default","layout":"1"},{"name":"Party","file":"party.png","layout":"2x2"}]`
	if err := os.WriteFile(filepath.Join(layoutDir, "layouts.json"), []byte(catalog), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	layouts, err := eng.AvailableLayouts()
	if err != nil {
		t.Fatalf("failed to load layouts: %v", err)
	}
	if len(layouts) != 2 {
		t.Fatalf("Expected 2 layouts, got %d", len(layouts))
	}
	if layouts[0].ImagesNeeded() != 1 || layouts[1].ImagesNeeded() != 4 {
		t.Errorf("Expected 1 and 4 images needed, got %d and %d",
			layouts[0].ImagesNeeded(), layouts[1].ImagesNeeded())
	}
}

func TestSetLayoutDrivesDeviceOverlay(t *testing.T) {
	eng, layoutDir, _ := newTestEngine(t)
	writeLayoutPNG(t, layoutDir, "party.png")

	if err := eng.SetLayout(Layout{Name: "Party", File: "party.png", Grid: GridSingle}); err != nil {
		t.Fatalf("failed to set layout: %v", err)
	}
	if !eng.HasOverlay() {
		t.Error("Expected the active layout to carry an overlay")
	}
	snap, err := eng.Take()
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if snap.ImagePath != "shot_overlay.jpg" || snap.ImagePathRaw != "shot.jpg" {
		t.Errorf("Expected composited primary with raw sibling, got %s / %s",
			snap.ImagePath, snap.ImagePathRaw)
	}

	// Grid layouts composite at render time; the raw rendition then
	// matches the primary because nothing was stripped.
	if err := eng.SetLayout(Layout{Name: "Quad", File: "party.png", Grid: GridQuad}); err != nil {
		t.Fatalf("failed to set layout: %v", err)
	}
	snap, err = eng.Take()
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if snap.ImagePathRaw != snap.ImagePath {
		t.Errorf("Expected no raw stripping under a grid layout, got %s / %s",
			snap.ImagePath, snap.ImagePathRaw)
	}
}

func TestSetLayoutRejectsUnknownGrid(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	if err := eng.SetLayout(Layout{Name: "Strip", Grid: "3x1"}); err == nil {
		t.Error("Expected an unsupported grid to be rejected")
	}
}

func TestImagePathRejectsTraversal(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	if _, err := eng.ImagePath("../../etc/passwd"); err == nil {
		t.Error("Expected path traversal to be rejected")
	}
}

func TestTakeBuildsSnapshot(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	snap, err := eng.Take()
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	// The device layer always emits its composited rendition first.
	if snap.ImagePath != "shot_overlay.jpg" {
		t.Errorf("Expected a path relative to the image folder, got %s", snap.ImagePath)
	}
	if !strings.HasPrefix(snap.ImageB64, "data:image/jpeg;base64,") {
		t.Errorf("Expected a data URI, got %.40s", snap.ImageB64)
	}
	if len(snap.AllPaths) != 2 {
		t.Errorf("Expected primary and raw paths, got %v", snap.AllPaths)
	}
}

func TestRenderQuadTilesLastFour(t *testing.T) {
	eng, _, imageDir := newTestEngine(t)
	if err := eng.SetLayout(Layout{Name: "Quad", Grid: GridQuad}); err != nil {
		t.Fatalf("failed to set layout: %v", err)
	}
	colors := []color.RGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
		{B: 255, A: 255},
		{R: 255, G: 255, A: 255},
	}
	names := make([]string, 0, 4)
	for i, c := range colors {
		name := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}[i]
		if err := os.WriteFile(filepath.Join(imageDir, name), solidJPEG(t, 40, 20, c), 0o644); err != nil {
			t.Fatalf("failed to write tile: %v", err)
		}
		names = append(names, name)
	}
	snap, err := eng.Render(names)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if snap.ImagePath != "combined_d.jpg" {
		t.Errorf("Expected combined_d.jpg, got %s", snap.ImagePath)
	}
	img, err := readImage(filepath.Join(imageDir, snap.ImagePath))
	if err != nil {
		t.Fatalf("failed to read rendered grid: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Fatalf("Expected the grid at original frame size, got %v", img.Bounds())
	}
	// Top-left quadrant comes from the first tile (red), bottom-right
	// from the last (yellow).
	r, g, _, _ := img.At(5, 5).RGBA()
	if r>>8 < 200 || g>>8 > 60 {
		t.Errorf("Expected a red top-left quadrant, got r=%d g=%d", r>>8, g>>8)
	}
	r, g, b, _ := img.At(35, 15).RGBA()
	if r>>8 < 200 || g>>8 < 200 || b>>8 > 60 {
		t.Errorf("Expected a yellow bottom-right quadrant, got r=%d g=%d b=%d", r>>8, g>>8, b>>8)
	}
}

func TestRenderQuadWithOverlayFile(t *testing.T) {
	eng, layoutDir, imageDir := newTestEngine(t)
	writeLayoutPNG(t, layoutDir, "party.png")
	if err := eng.SetLayout(Layout{Name: "Quad", File: "party.png", Grid: GridQuad}); err != nil {
		t.Fatalf("failed to set layout: %v", err)
	}
	names := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(imageDir, name), solidJPEG(t, 40, 20, color.RGBA{R: 255, A: 255}), 0o644); err != nil {
			t.Fatalf("failed to write tile: %v", err)
		}
	}
	snap, err := eng.Render(names)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if snap.ImagePath != "combined_overlay_d.jpg" {
		t.Errorf("Expected the composited grid first, got %s", snap.ImagePath)
	}
	if snap.ImagePathRaw != "combined_d.jpg" {
		t.Errorf("Expected the plain grid as raw rendition, got %s", snap.ImagePathRaw)
	}
}

func TestRenderRequiresEnoughImages(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	if err := eng.SetLayout(Layout{Name: "Quad", Grid: GridQuad}); err != nil {
		t.Fatalf("failed to set layout: %v", err)
	}
	if _, err := eng.Render([]string{"only.jpg"}); err == nil {
		t.Error("Expected a quad render with one image to fail")
	}
}

func TestDeleteRemovesRawSibling(t *testing.T) {
	eng, _, imageDir := newTestEngine(t)
	data := solidJPEG(t, 10, 10, color.RGBA{R: 255, A: 255})
	for _, name := range []string{"a.jpg", "a_overlay.jpg"} {
		if err := os.WriteFile(filepath.Join(imageDir, name), data, 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := eng.Delete([]string{"a_overlay.jpg", "a_overlay.jpg"}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	for _, name := range []string{"a.jpg", "a_overlay.jpg"} {
		if _, err := os.Stat(filepath.Join(imageDir, name)); !os.IsNotExist(err) {
			t.Errorf("Expected %s removed, stat returned %v", name, err)
		}
	}
}
