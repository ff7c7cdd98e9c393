package booth

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Render produces the final image of the active layout from the named
// captures, newest last, and returns it as a snapshot response.
func (e *Engine) Render(imageNames []string) (*Snapshot, error) {
	active := e.Active()
	if len(imageNames) < active.ImagesNeeded() {
		return nil, fmt.Errorf("layout %s needs %d image(s), got %d",
			active.Name, active.ImagesNeeded(), len(imageNames))
	}
	if active.Grid == GridSingle {
		return e.renderSingle(active, imageNames)
	}
	return e.renderQuad(active, imageNames)
}

// renderSingle reuses the newest capture as-is; the overlay was already
// composited at capture time by the device layer.
func (e *Engine) renderSingle(active Layout, names []string) (*Snapshot, error) {
	name := names[len(names)-1]
	rawName := name
	if active.File != "" {
		rawName = strings.ReplaceAll(name, "_overlay", "")
	}
	img, err := e.ImagePath(name)
	if err != nil {
		return nil, err
	}
	raw, err := e.ImagePath(rawName)
	if err != nil {
		return nil, err
	}
	return e.snapshotFromFiles(img, raw, "")
}

// renderQuad tiles the newest four raw captures into a half-scale 2x2
// grid at the original frame size, then composites the layout overlay
// over the grid when one is configured.
func (e *Engine) renderQuad(active Layout, names []string) (*Snapshot, error) {
	last := names[len(names)-4:]
	tiles := make([]image.Image, 0, 4)
	var lastRaw string
	for _, n := range last {
		lastRaw = strings.ReplaceAll(n, "_overlay", "")
		p, err := e.ImagePath(lastRaw)
		if err != nil {
			return nil, err
		}
		img, err := readImage(p)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, img)
	}
	b := tiles[0].Bounds()
	w, h := b.Dx(), b.Dy()
	combined := image.NewRGBA(image.Rect(0, 0, w, h))
	cell := image.Rect(0, 0, w/2, h/2)
	positions := []image.Point{{0, 0}, {w / 2, 0}, {0, h / 2}, {w / 2, h / 2}}
	for i, tile := range tiles {
		xdraw.ApproxBiLinear.Scale(combined, cell.Add(positions[i]), tile, tile.Bounds(), xdraw.Src, nil)
	}
	combinedPath := filepath.Join(e.imageDir, "combined_"+filepath.Base(lastRaw))
	if err := writeJPEG(combinedPath, combined); err != nil {
		return nil, err
	}
	if active.File == "" {
		return e.snapshotFromFiles(combinedPath, combinedPath, "")
	}

	overlayFile, err := e.LayoutImagePath(active.File)
	if err != nil {
		return nil, err
	}
	overlayImg, err := readImage(overlayFile)
	if err != nil {
		return nil, err
	}
	final := image.NewRGBA(combined.Bounds())
	draw.Draw(final, final.Bounds(), combined, combined.Bounds().Min, draw.Src)
	xdraw.CatmullRom.Scale(final, final.Bounds(), overlayImg, overlayImg.Bounds(), xdraw.Over, nil)
	overlayPath := filepath.Join(e.imageDir, "combined_overlay_"+filepath.Base(lastRaw))
	if err := writeJPEG(overlayPath, final); err != nil {
		return nil, err
	}
	return e.snapshotFromFiles(overlayPath, combinedPath, "")
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
