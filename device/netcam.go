package device

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/tool"
)

// Netcam pulls JPEG snapshots from the still-image endpoint of a
// network camera. It is the fallback source when no tethered camera is
// connected, and doubles as the photo booth's webcam path.
type Netcam struct {
	name    string
	url     string
	client  *http.Client
	quality int
}

// NewNetcam builds a snapshot device over the given still-image URL.
func NewNetcam(name, snapshotURL string) *Netcam {
	return &Netcam{
		name:    name,
		url:     snapshotURL,
		client:  tool.GetHttpClient(),
		quality: 95,
	}
}

func (n *Netcam) Name() string {
	return n.name
}

// Probe checks that the camera host answers ICMP before the device is
// put into rotation. It runs unprivileged so it works without raw
// socket capabilities.
func (n *Netcam) Probe(timeout time.Duration) error {
	u, err := url.Parse(n.url)
	if err != nil {
		return fmt.Errorf("failed to parse snapshot URL: %w", err)
	}
	pinger, err := probing.NewPinger(u.Hostname())
	if err != nil {
		return fmt.Errorf("failed to build pinger for %s: %w", u.Hostname(), err)
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)
	if err := pinger.Run(); err != nil {
		return fmt.Errorf("failed to ping %s: %w", u.Hostname(), err)
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("camera host %s did not answer ping", u.Hostname())
	}
	return nil
}

// Preview fetches one snapshot. A non-200 answer means the camera is
// up but has no frame for us right now (many IP cameras 503 while
// re-exposing), so it surfaces as ErrNotReady and streams skip the
// frame.
func (n *Netcam) Preview() ([]byte, error) {
	resp, err := n.client.Get(n.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint returned %s: %w", resp.Status, camera.ErrNotReady)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body: %w", err)
	}
	return data, nil
}

// Capture fetches a snapshot, center-crops it to the 3:2 aspect ratio
// photo paper expects and writes it into destDir under a timestamped
// name.
func (n *Netcam) Capture(destDir string) ([]string, error) {
	img, err := PreviewImage(n)
	if err != nil {
		return nil, err
	}
	data, err := encodeJPEG(cropThreeByTwo(img), n.quality)
	if err != nil {
		return nil, err
	}
	dest := filepath.Join(destDir, fmt.Sprintf("netcam_%s.jpg", time.Now().Format("20060102_150405")))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	tool.DefaultLogger.Infof("netcam stored %s", dest)
	return []string{dest}, nil
}

func (n *Netcam) Close() error {
	n.client.CloseIdleConnections()
	return nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropThreeByTwo trims the horizontal excess so the frame comes out at
// 3:2. Frames already at or narrower than 3:2 pass through untouched.
func cropThreeByTwo(img image.Image) image.Image {
	b := img.Bounds()
	targetWidth := b.Dy() * 3 / 2
	if targetWidth >= b.Dx() {
		return img
	}
	margin := (b.Dx() - targetWidth) / 2
	rect := image.Rect(b.Min.X+margin, b.Min.Y, b.Max.X-margin, b.Max.Y)
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	return img
}
