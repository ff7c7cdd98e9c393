package device

import (
	"github.com/Zahlii/godslr/camera"
)

// DSLR adapts a tethered camera session to the Device interface. It
// shares the session with any other consumer; locking happens inside
// the session layer.
type DSLR struct {
	name  string
	sess  *camera.Session
	coord *camera.Coordinator
	opts  camera.CaptureOptions
}

// NewDSLR wraps a session and its capture coordinator.
func NewDSLR(name string, sess *camera.Session, coord *camera.Coordinator, opts camera.CaptureOptions) *DSLR {
	return &DSLR{name: name, sess: sess, coord: coord, opts: opts}
}

func (d *DSLR) Name() string {
	return d.name
}

// Preview returns the current live-view frame. A not-ready device
// surfaces camera.ErrNotReady so callers can skip the frame.
func (d *DSLR) Preview() ([]byte, error) {
	return d.sess.CapturePreview()
}

// Capture triggers one exposure and downloads all produced files into
// destDir under their device names.
func (d *DSLR) Capture(destDir string) ([]string, error) {
	res, err := d.coord.CaptureToDir(destDir, d.opts)
	if err != nil {
		return nil, err
	}
	return res.Paths, nil
}

func (d *DSLR) Close() error {
	return d.sess.Close()
}
