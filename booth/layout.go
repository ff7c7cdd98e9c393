// Package booth drives the photo booth: it tracks the active print
// layout, renders multi-image grids and shapes capture results for the
// booth UI.
package booth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/device"
	"github.com/Zahlii/godslr/tool"
)

// Grid identifiers of the supported layouts.
const (
	GridSingle = "1"
	GridQuad   = "2x2"
)

// Layout describes one selectable booth layout. File names an optional
// transparent overlay image inside the layout folder.
type Layout struct {
	Name string `json:"name"`
	File string `json:"file,omitempty"`
	Grid string `json:"layout"`
}

// ImagesNeeded returns how many captures the layout consumes.
func (l Layout) ImagesNeeded() int {
	if l.Grid == GridQuad {
		return 4
	}
	return 1
}

// Engine owns the active layout and the folders the booth works in.
type Engine struct {
	mu        sync.Mutex
	layoutDir string
	imageDir  string
	dev       *device.Overlay
	active    Layout

	// ExtractMeta, when set, attaches metadata to snapshot responses.
	ExtractMeta func(path string) (*camera.ImageMeta, error)
}

// NewEngine builds a booth over the given overlay device. imageDir is
// created when missing.
func NewEngine(layoutDir, imageDir string, dev *device.Overlay) (*Engine, error) {
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image folder: %w", err)
	}
	tool.DefaultLogger.Infof("saving booth pictures to %s", imageDir)
	return &Engine{
		layoutDir: layoutDir,
		imageDir:  imageDir,
		dev:       dev,
		active:    Layout{Name: "Default", Grid: GridSingle},
	}, nil
}

// ImageDir returns the folder captures land in.
func (e *Engine) ImageDir() string {
	return e.imageDir
}

// Active returns the currently selected layout.
func (e *Engine) Active() Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// AvailableLayouts loads the layout catalog from layouts.json in the
// layout folder.
func (e *Engine) AvailableLayouts() ([]Layout, error) {
	data, err := os.ReadFile(filepath.Join(e.layoutDir, "layouts.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read layout catalog: %w", err)
	}
	var layouts []Layout
	if err := sonic.Unmarshal(data, &layouts); err != nil {
		return nil, fmt.Errorf("failed to parse layout catalog: %w", err)
	}
	return layouts, nil
}

// LayoutImagePath resolves a layout image file name inside the layout
// folder, rejecting anything that escapes it.
func (e *Engine) LayoutImagePath(filename string) (string, error) {
	return safeJoin(e.layoutDir, filename)
}

// SetLayout activates a layout. Single layouts with an overlay file
// push that overlay onto the live device; grid layouts composite at
// render time instead.
func (e *Engine) SetLayout(l Layout) error {
	if l.Grid != GridSingle && l.Grid != GridQuad {
		return fmt.Errorf("unsupported layout grid %q", l.Grid)
	}
	overlayPath := ""
	if l.Grid == GridSingle && l.File != "" {
		p, err := e.LayoutImagePath(l.File)
		if err != nil {
			return err
		}
		overlayPath = p
	}
	if err := e.dev.SetOverlay(overlayPath); err != nil {
		return err
	}
	e.mu.Lock()
	e.active = l
	e.mu.Unlock()
	tool.DefaultLogger.Infof("active layout now %s (%s)", l.Name, l.Grid)
	return nil
}

// HasOverlay reports whether the active layout carries an overlay file.
func (e *Engine) HasOverlay() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.File != ""
}

// ImagePath resolves a stored image name, rejecting path traversal.
func (e *Engine) ImagePath(name string) (string, error) {
	return safeJoin(e.imageDir, name)
}

func safeJoin(dir, name string) (string, error) {
	full := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", name, dir)
	}
	return full, nil
}
