package camera

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zahlii/godslr/tool"
)

// Policy bounds the timing of capture protocols. The zero value of any
// field falls back to its default.
type Policy struct {
	// EventPollSlice is the wait window of one event poll.
	EventPollSlice time.Duration
	// CollectCeiling caps how long a collection loop runs overall.
	CollectCeiling time.Duration
	// TriggerAttempts bounds the retry loop around flaky triggers.
	TriggerAttempts int
	// RetryBaseDelay is the first retry delay; it doubles per attempt.
	RetryBaseDelay time.Duration
}

// DefaultPolicy returns the production timing bounds.
func DefaultPolicy() Policy {
	return Policy{
		EventPollSlice:  100 * time.Millisecond,
		CollectCeiling:  20 * time.Second,
		TriggerAttempts: 5,
		RetryBaseDelay:  100 * time.Millisecond,
	}
}

// PendingImage locates a file sitting in device storage between its
// file-added event and the local download.
type PendingImage struct {
	Folder string
	Name   string
}

// ImageMeta is the parsed metadata of one downloaded image. Extraction
// is best-effort; a capture succeeds without it.
type ImageMeta struct {
	ISO          int     `json:"iso,omitempty"`
	FNumber      float64 `json:"f_number,omitempty"`
	ExposureTime string  `json:"exposure_time,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
}

// CaptureResult lists the files a capture protocol produced. Meta is
// index-aligned with Paths; entries are nil when extraction failed.
type CaptureResult struct {
	Paths []string     `json:"paths"`
	Meta  []*ImageMeta `json:"meta"`
}

// CaptureOptions tune download bookkeeping.
type CaptureOptions struct {
	// KeepOnDevice leaves the files in device storage after download.
	// It is honored only when the device is configured for card-based
	// capture; images in internal RAM are always deleted.
	KeepOnDevice bool
}

// Coordinator implements the capture protocols over a session: single
// triggered capture, bulb exposure, high-speed burst and focus stack.
// Every protocol holds the session lock for its whole duration.
type Coordinator struct {
	sess   *Session
	sync   *Synchronizer
	policy Policy

	// ExtractMeta, when set, parses metadata from a downloaded image.
	// Failures are logged and leave a nil Meta entry, never failing the
	// capture itself.
	ExtractMeta func(path string) (*ImageMeta, error)
}

// NewCoordinator builds a coordinator. Zero policy fields take defaults.
func NewCoordinator(sess *Session, sy *Synchronizer, policy Policy) *Coordinator {
	def := DefaultPolicy()
	if policy.EventPollSlice <= 0 {
		policy.EventPollSlice = def.EventPollSlice
	}
	if policy.CollectCeiling <= 0 {
		policy.CollectCeiling = def.CollectCeiling
	}
	if policy.TriggerAttempts <= 0 {
		policy.TriggerAttempts = def.TriggerAttempts
	}
	if policy.RetryBaseDelay <= 0 {
		policy.RetryBaseDelay = def.RetryBaseDelay
	}
	return &Coordinator{sess: sess, sync: sy, policy: policy}
}

// CaptureTo performs one triggered capture and writes the primary image
// to destPath. The path extension must agree with the configured image
// format; that is checked before any hardware interaction. Extra files
// from the same capture (raw+jpeg pairs) land next to destPath under
// their device names.
func (c *Coordinator) CaptureTo(destPath string, opts CaptureOptions) (*CaptureResult, error) {
	c.sess.mu.Lock()
	defer c.sess.mu.Unlock()
	return c.captureToLocked(destPath, opts)
}

// CaptureToWith runs CaptureTo under a temporary configuration that is
// restored afterwards, whatever the capture outcome.
func (c *Coordinator) CaptureToWith(temp Profile, destPath string, opts CaptureOptions) (*CaptureResult, error) {
	c.sess.mu.Lock()
	defer c.sess.mu.Unlock()
	var res *CaptureResult
	err := c.sync.withRollbackLocked(temp, func() error {
		r, ferr := c.captureToLocked(destPath, opts)
		res = r
		return ferr
	})
	return res, err
}

// CaptureToDir performs one triggered capture and downloads every
// produced file into destDir under its device name. With no
// caller-chosen name there is no extension to validate.
func (c *Coordinator) CaptureToDir(destDir string, opts CaptureOptions) (*CaptureResult, error) {
	c.sess.mu.Lock()
	defer c.sess.mu.Unlock()
	prof, err := c.snapshotLocked(false)
	if err != nil {
		return nil, err
	}
	pending, err := c.triggerAndCollectLocked()
	if err != nil {
		return nil, err
	}
	return c.downloadAllLocked(pending, destInDir(destDir), opts.KeepOnDevice, prof)
}

// CaptureBulb drives a bulb exposure: press the shutter through the
// config, hold it for the given duration, release, then collect and
// download whatever the device produced. The release write is always
// attempted, even when an earlier step failed, so the shutter is never
// left logically pressed.
func (c *Coordinator) CaptureBulb(destDir string, hold time.Duration, opts CaptureOptions) (*CaptureResult, error) {
	c.sess.mu.Lock()
	defer c.sess.mu.Unlock()
	return c.captureBulbLocked(destDir, hold, opts)
}

// CaptureBurst holds the shutter for the given duration in continuous
// drive, collecting images as the device announces them, then releases
// and drains trailing events. All collected images are downloaded into
// destDir under their device names.
func (c *Coordinator) CaptureBurst(destDir string, hold time.Duration, opts CaptureOptions) (*CaptureResult, error) {
	c.sess.mu.Lock()
	defer c.sess.mu.Unlock()
	return c.captureBurstLocked(destDir, hold, opts)
}

// CaptureFocusStack captures frames images into destDir, stepping the
// manual focus by stepSize between shots for later depth-of-field
// merging.
func (c *Coordinator) CaptureFocusStack(destDir string, frames, stepSize int, opts CaptureOptions) (*CaptureResult, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("%w: focus stack needs at least one frame", ErrValidation)
	}
	c.sess.mu.Lock()
	defer c.sess.mu.Unlock()
	prof, err := c.snapshotLocked(false)
	if err != nil {
		return nil, err
	}
	ext := ".jpg"
	if prof.IsRaw() {
		ext = ".cr3"
	}
	out := &CaptureResult{}
	for i := 0; i < frames; i++ {
		dest := filepath.Join(destDir, fmt.Sprintf("stack_%03d%s", i, ext))
		res, err := c.captureToLocked(dest, opts)
		if err != nil {
			return nil, fmt.Errorf("focus stack failed at frame %d: %w", i, err)
		}
		out.Paths = append(out.Paths, res.Paths...)
		out.Meta = append(out.Meta, res.Meta...)
		// The focus drive is a one-shot action that never reads back as
		// its committed value, so the diff must run against a fresh tree.
		if _, err := c.sync.applyLocked(prof.FocusStep(stepSize), ApplyOptions{ForceRefresh: true}); err != nil {
			return nil, fmt.Errorf("failed to step focus after frame %d: %w", i, err)
		}
	}
	return out, nil
}

func (c *Coordinator) captureToLocked(destPath string, opts CaptureOptions) (*CaptureResult, error) {
	prof, err := c.snapshotLocked(false)
	if err != nil {
		return nil, err
	}
	if err := validateDest(destPath, prof.IsRaw()); err != nil {
		return nil, err
	}
	pending, err := c.triggerAndCollectLocked()
	if err != nil {
		return nil, err
	}
	destFor := func(i int, p PendingImage) string {
		if i == 0 {
			return destPath
		}
		return filepath.Join(filepath.Dir(destPath), p.Name)
	}
	return c.downloadAllLocked(pending, destFor, opts.KeepOnDevice, prof)
}

func (c *Coordinator) captureBulbLocked(destDir string, hold time.Duration, opts CaptureOptions) (res *CaptureResult, err error) {
	prof, err := c.snapshotLocked(false)
	if err != nil {
		return nil, err
	}
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		if _, rerr := c.sync.applyLocked(prof.ReleaseShutter(), ApplyOptions{}); rerr != nil {
			return fmt.Errorf("failed to release shutter: %w", rerr)
		}
		return nil
	}
	defer func() {
		if rerr := release(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	if _, err = c.sync.applyLocked(prof.PressShutter(), ApplyOptions{}); err != nil {
		return nil, fmt.Errorf("failed to press shutter: %w", err)
	}
	tool.DefaultLogger.Infof("bulb exposure for %s", hold)
	time.Sleep(hold)
	if err = release(); err != nil {
		return nil, err
	}
	pending, err := c.collectLocked()
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, ErrNoCaptureEvent
	}
	return c.downloadAllLocked(pending, destInDir(destDir), opts.KeepOnDevice, prof)
}

func (c *Coordinator) captureBurstLocked(destDir string, hold time.Duration, opts CaptureOptions) (res *CaptureResult, err error) {
	prof, err := c.snapshotLocked(false)
	if err != nil {
		return nil, err
	}
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		if _, rerr := c.sync.applyLocked(prof.ReleaseShutter(), ApplyOptions{}); rerr != nil {
			return fmt.Errorf("failed to release shutter: %w", rerr)
		}
		return nil
	}
	defer func() {
		if rerr := release(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	if _, err = c.sync.applyLocked(prof.PressShutter(), ApplyOptions{}); err != nil {
		return nil, fmt.Errorf("failed to press shutter: %w", err)
	}
	// Poll in the time remaining until the hold elapses, recomputed from
	// wall clock each turn so slow event delivery cannot overshoot the
	// hold by more than one poll slice.
	start := time.Now()
	var pending []PendingImage
	for {
		remaining := hold - time.Since(start)
		if remaining <= 0 {
			break
		}
		ev, werr := c.sess.waitEventLocked(min(remaining, c.policy.EventPollSlice))
		if werr != nil {
			return nil, werr
		}
		if ev.Kind == EventFileAdded {
			pending = append(pending, PendingImage{Folder: ev.Folder, Name: ev.Name})
		}
	}
	if err = release(); err != nil {
		return nil, err
	}
	trailing, err := c.collectLocked()
	if err != nil {
		return nil, err
	}
	pending = append(pending, trailing...)
	if len(pending) == 0 {
		return nil, ErrNoCaptureEvent
	}
	tool.DefaultLogger.Infof("burst collected %d image(s)", len(pending))
	return c.downloadAllLocked(pending, destInDir(destDir), opts.KeepOnDevice, prof)
}

// triggerAndCollectLocked wraps one trigger-and-collect cycle in the
// retry policy. Hardware triggers intermittently fail to start; every
// attempt is a fresh cycle carrying no partial state.
func (c *Coordinator) triggerAndCollectLocked() ([]PendingImage, error) {
	var lastErr error
	for attempt := 1; attempt <= c.policy.TriggerAttempts; attempt++ {
		if attempt > 1 {
			delay := c.policy.RetryBaseDelay << (attempt - 2)
			tool.DefaultLogger.Warnf("capture attempt %d/%d failed, retrying in %s: %v",
				attempt-1, c.policy.TriggerAttempts, delay, lastErr)
			time.Sleep(delay)
		}
		pending, err := c.attemptLocked()
		if err == nil {
			return pending, nil
		}
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("capture failed after %d attempts: %w", c.policy.TriggerAttempts, lastErr)
}

func (c *Coordinator) attemptLocked() ([]PendingImage, error) {
	if err := c.sess.triggerLocked(); err != nil {
		return nil, err
	}
	pending, err := c.collectLocked()
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, ErrNoCaptureEvent
	}
	return pending, nil
}

// collectLocked drains capture events in poll slices until the device
// reports completion or the ceiling elapses. It returns the images
// announced so far; whether zero images is an error is decided by the
// protocol on top.
func (c *Coordinator) collectLocked() ([]PendingImage, error) {
	var pending []PendingImage
	start := time.Now()
	for {
		ev, err := c.sess.waitEventLocked(c.policy.EventPollSlice)
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case EventFileAdded:
			tool.DefaultLogger.Debugf("device stored %s/%s", ev.Folder, ev.Name)
			pending = append(pending, PendingImage{Folder: ev.Folder, Name: ev.Name})
		case EventCaptureComplete:
			return pending, nil
		}
		if time.Since(start) >= c.policy.CollectCeiling {
			return pending, nil
		}
	}
}

// downloadAllLocked fetches every pending image, writes it locally and
// deletes it from the device unless the caller asked to keep it and the
// device captures to its memory card. Empty downloads are dropped with
// a warning; a capture with zero usable files fails.
func (c *Coordinator) downloadAllLocked(pending []PendingImage, destFor func(int, PendingImage) string, keep bool, prof Profile) (*CaptureResult, error) {
	keepOnDevice := keep && prof.IsCardCapture()
	res := &CaptureResult{}
	for i, p := range pending {
		data, err := c.sess.getFileLocked(p.Folder, p.Name)
		if err != nil {
			return nil, err
		}
		dest := destFor(i, p)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output folder: %w", err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", dest, err)
		}
		if !keepOnDevice {
			if err := c.sess.deleteFileLocked(p.Folder, p.Name); err != nil {
				return nil, err
			}
		}
		if len(data) == 0 {
			tool.DefaultLogger.Warnf("discarding %s: the device sent an incomplete transfer", dest)
			if rmErr := os.Remove(dest); rmErr != nil {
				tool.DefaultLogger.Warnf("failed to remove empty file %s: %v", dest, rmErr)
			}
			continue
		}
		res.Paths = append(res.Paths, dest)
		res.Meta = append(res.Meta, c.metaFor(dest))
	}
	if len(res.Paths) == 0 {
		return nil, fmt.Errorf("%w: %d file(s) announced, none usable", ErrEmptyCapture, len(pending))
	}
	return res, nil
}

func (c *Coordinator) metaFor(path string) *ImageMeta {
	if c.ExtractMeta == nil {
		return nil
	}
	meta, err := c.ExtractMeta(path)
	if err != nil {
		tool.DefaultLogger.Warnf("failed to extract metadata from %s: %v", path, err)
		return nil
	}
	return meta
}

func (c *Coordinator) snapshotLocked(force bool) (Profile, error) {
	tree, err := c.sess.readTreeLocked(force)
	if err != nil {
		return nil, err
	}
	prof := c.sync.factory()
	if err := Decode(tree, prof); err != nil {
		return nil, err
	}
	return prof, nil
}

func destInDir(dir string) func(int, PendingImage) string {
	return func(_ int, p PendingImage) string {
		return filepath.Join(dir, p.Name)
	}
}

var rawExtensions = map[string]bool{
	".cr2": true,
	".cr3": true,
	".nef": true,
	".arw": true,
	".raf": true,
	".dng": true,
}

// validateDest rejects a destination path whose extension disagrees
// with the configured image format before any hardware call is made.
func validateDest(destPath string, raw bool) error {
	ext := strings.ToLower(filepath.Ext(destPath))
	if raw && (ext == ".jpg" || ext == ".jpeg") {
		return fmt.Errorf("%w: device is configured for raw images, %s has a JPEG extension",
			ErrValidation, destPath)
	}
	if !raw && rawExtensions[ext] {
		return fmt.Errorf("%w: device is configured for JPEG images, %s has a raw extension",
			ErrValidation, destPath)
	}
	return nil
}
