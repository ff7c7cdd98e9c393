package booth

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/tool"
)

// Snapshot is the booth's view of one finished capture or render. The
// raw rendition is the frame without overlay; the camera raw path is
// present only for raw+JPEG captures.
type Snapshot struct {
	ImagePath     string            `json:"image_path"`
	ImageB64      string            `json:"image_b64"`
	ImagePathRaw  string            `json:"image_path_raw"`
	ImageB64Raw   string            `json:"image_b64_raw"`
	CameraRawPath string            `json:"image_path_camera_raw,omitempty"`
	AllPaths      []string          `json:"all_paths"`
	Exif          *camera.ImageMeta `json:"exif,omitempty"`
}

// Take captures one picture through the booth device and shapes the
// response for the UI.
func (e *Engine) Take() (*Snapshot, error) {
	paths, err := e.dev.Capture(e.imageDir)
	if err != nil {
		return nil, err
	}
	primary := paths[0]
	raw := primary
	if e.dev.HasOverlay() {
		raw = strings.ReplaceAll(primary, "_overlay", "")
	}
	cameraRaw := ""
	for _, p := range paths[1:] {
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".jpg" && ext != ".jpeg" {
			cameraRaw = p
			break
		}
	}
	return e.snapshotFromFiles(primary, raw, cameraRaw)
}

// Delete removes stored snapshots by name, along with their raw
// siblings. Unknown names are skipped.
func (e *Engine) Delete(names []string) error {
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		full, err := e.ImagePath(name)
		if err != nil {
			return err
		}
		raw := strings.ReplaceAll(full, "_overlay", "")
		for _, p := range []string{raw, full} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete %s: %w", p, err)
			}
		}
		tool.DefaultLogger.Infof("deleted snapshot %s", name)
	}
	return nil
}

func (e *Engine) snapshotFromFiles(img, raw, cameraRaw string) (*Snapshot, error) {
	imgRel, imgB64, err := e.encodeFile(img)
	if err != nil {
		return nil, err
	}
	rawRel, rawB64, err := e.encodeFile(raw)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		ImagePath:    imgRel,
		ImageB64:     imgB64,
		ImagePathRaw: rawRel,
		ImageB64Raw:  rawB64,
		AllPaths:     []string{imgRel, rawRel},
	}
	if cameraRaw != "" {
		rel, err := filepath.Rel(e.imageDir, cameraRaw)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", cameraRaw, err)
		}
		snap.CameraRawPath = rel
		snap.AllPaths = append(snap.AllPaths, rel)
	}
	if e.ExtractMeta != nil {
		meta, err := e.ExtractMeta(img)
		if err != nil {
			tool.DefaultLogger.Warnf("failed to extract metadata from %s: %v", img, err)
		} else {
			snap.Exif = meta
		}
	}
	return snap, nil
}

func (e *Engine) encodeFile(path string) (rel string, b64 string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	rel, err = filepath.Rel(e.imageDir, path)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return rel, "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
