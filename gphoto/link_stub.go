//go:build !gphoto2

package gphoto

import (
	"errors"

	"github.com/Zahlii/godslr/camera"
)

// ErrUnavailable is returned by NewLink in builds without the gphoto2
// tag.
var ErrUnavailable = errors.New("built without gphoto2 support (rebuild with -tags gphoto2)")

// NewLink reports that tethered capture is unavailable in this build.
func NewLink() (camera.Link, error) {
	return nil, ErrUnavailable
}
