package device

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Overlay wraps another device and composites a transparent layout
// image over every frame and capture, optionally mirroring the base
// image first. The untouched original of every capture is kept next to
// the composited file.
type Overlay struct {
	mu      sync.Mutex
	inner   Device
	mirror  bool
	overlay image.Image
	scaled  *image.RGBA
	last    []byte
	quality int
}

// NewOverlay wraps inner. With no overlay set it only mirrors (when
// asked) and re-encodes.
func NewOverlay(inner Device, mirror bool) *Overlay {
	return &Overlay{inner: inner, mirror: mirror, quality: 95}
}

func (o *Overlay) Name() string {
	return o.inner.Name()
}

// SetOverlay loads the overlay image at path, or clears the overlay
// when path is empty.
func (o *Overlay) SetOverlay(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if path == "" {
		o.overlay = nil
		o.scaled = nil
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open overlay image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode overlay image %s: %w", path, err)
	}
	o.overlay = img
	o.scaled = nil
	return nil
}

// HasOverlay reports whether an overlay image is active.
func (o *Overlay) HasOverlay() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.overlay != nil
}

// Placeholder returns the last rendered frame, for a UI that wants an
// image before the first pull of its own.
func (o *Overlay) Placeholder() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Preview pulls a frame from the inner device and renders the overlay
// onto it.
func (o *Overlay) Preview() ([]byte, error) {
	data, err := o.inner.Preview()
	if err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame from %s: %w", o.inner.Name(), err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_, composited := o.renderLocked(img)
	out, err := encodeJPEG(composited, o.quality)
	if err != nil {
		return nil, err
	}
	o.last = out
	return out, nil
}

// Capture takes a picture through the inner device, then writes a
// composited _overlay sibling of its primary JPEG. The composited file
// leads the returned paths.
func (o *Overlay) Capture(destDir string) ([]string, error) {
	paths, err := o.inner.Capture(destDir)
	if err != nil {
		return nil, err
	}
	jpegPath := primaryJPEG(paths)
	if jpegPath == "" {
		// Raw-only captures pass through untouched.
		return paths, nil
	}
	img, err := loadJPEG(jpegPath)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	base, composited := o.renderLocked(img)
	mirror := o.mirror
	quality := o.quality
	o.mu.Unlock()

	if mirror {
		// The stored original should match what the subject saw on
		// screen.
		if err := saveJPEG(jpegPath, base, quality); err != nil {
			return nil, err
		}
	}
	overlayPath := siblingName(jpegPath, "_overlay")
	if err := saveJPEG(overlayPath, composited, quality); err != nil {
		return nil, err
	}
	return append([]string{overlayPath}, paths...), nil
}

func (o *Overlay) Close() error {
	return o.inner.Close()
}

// renderLocked mirrors the frame when configured and composites the
// overlay. It returns the (possibly mirrored) base and the final frame.
func (o *Overlay) renderLocked(img image.Image) (*image.RGBA, *image.RGBA) {
	base := toRGBA(img)
	if o.mirror {
		base = mirrorHorizontal(base)
	}
	if o.overlay == nil {
		return base, base
	}
	if o.scaled == nil || !o.scaled.Bounds().Eq(base.Bounds()) {
		// Preview and full capture sizes differ; rescale on change.
		o.scaled = image.NewRGBA(base.Bounds())
		xdraw.CatmullRom.Scale(o.scaled, o.scaled.Bounds(), o.overlay, o.overlay.Bounds(), xdraw.Over, nil)
	}
	composited := image.NewRGBA(base.Bounds())
	draw.Draw(composited, composited.Bounds(), base, base.Bounds().Min, draw.Src)
	draw.Draw(composited, composited.Bounds(), o.scaled, o.scaled.Bounds().Min, draw.Over)
	return base, composited
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

func mirrorHorizontal(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetRGBA(b.Max.X-1-(x-b.Min.X), y, src.RGBAAt(x, y))
		}
	}
	return out
}

func primaryJPEG(paths []string) string {
	for _, p := range paths {
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".jpg" || ext == ".jpeg" {
			return p
		}
	}
	return ""
}

func siblingName(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func loadJPEG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

func saveJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
