// Package device abstracts image sources behind one capture interface
// so the HTTP layer can serve a tethered camera, a network camera or a
// composited overlay source the same way.
package device

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// Device is a source of preview frames and full captures.
type Device interface {
	// Name identifies the source in logs and file names.
	Name() string
	// Preview returns the current viewfinder frame as JPEG bytes.
	Preview() ([]byte, error)
	// Capture takes a picture into destDir and returns the produced
	// file paths, preferred rendition first.
	Capture(destDir string) ([]string, error)
	// Close releases the underlying source.
	Close() error
}

// PreviewImage pulls one preview frame from d and decodes it.
func PreviewImage(d Device) (image.Image, error) {
	data, err := d.Preview()
	if err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode preview from %s: %w", d.Name(), err)
	}
	return img, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
