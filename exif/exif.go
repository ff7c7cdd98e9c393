// Package exif reads capture metadata from image files through the
// exiftool binary. A missing binary downgrades extraction to a no-op so
// captures keep working on hosts without it.
package exif

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/tool"
)

var toolPath string

func init() {
	p, err := exec.LookPath("exiftool")
	if err != nil {
		tool.DefaultLogger.Warnf("exiftool not found, captures will carry no metadata: %v", err)
		return
	}
	toolPath = p
}

// Available reports whether exiftool was found on PATH.
func Available() bool {
	return toolPath != ""
}

// Extract returns the key metadata of a freshly taken picture. It
// returns nil without error when exiftool is not installed.
func Extract(path string) (*camera.ImageMeta, error) {
	if !Available() {
		return nil, nil
	}
	out, err := exec.Command(toolPath, "-j", "-G", path).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run exiftool on %s: %w", path, err)
	}
	return Parse(out)
}

// Parse decodes exiftool -j -G output. Exiftool reports numbers either
// as JSON numbers or as strings depending on the tag, so every field
// goes through a tolerant conversion.
func Parse(out []byte) (*camera.ImageMeta, error) {
	var records []map[string]any
	if err := sonic.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("failed to parse exiftool output: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("exiftool returned no records")
	}
	rec := records[0]
	return &camera.ImageMeta{
		ISO:          asInt(rec["EXIF:ISO"]),
		FNumber:      asFloat(rec["EXIF:FNumber"]),
		ExposureTime: asString(rec["EXIF:ExposureTime"]),
		Width:        asInt(rec["File:ImageWidth"]),
		Height:       asInt(rec["File:ImageHeight"]),
	}, nil
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
