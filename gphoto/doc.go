// Package gphoto provides the libgphoto2 transport for tethered
// cameras. It needs cgo and the libgphoto2 headers, so it only builds
// with the gphoto2 tag:
//
//	go build -tags gphoto2 ./...
//
// Without the tag NewLink reports that tethered capture is unavailable
// and the server falls back to the simulated or netcam backends.
package gphoto
