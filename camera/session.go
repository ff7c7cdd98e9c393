package camera

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Zahlii/godslr/tool"
)

// Session owns the exclusive handle to one device. Every operation is
// serialized under one mutex; the underlying link is not reentrant.
// Composite operations in this package (capture protocols, scoped
// config application) take the lock once and compose the *Locked
// internals, so no foreign hardware call can interleave mid-protocol.
type Session struct {
	mu   sync.Mutex
	link Link
	open bool

	// tree caches the last configuration read. Full tree reads are
	// expensive; most operations mutate a handful of fields against a
	// tree read once per logical operation.
	tree *Widget
}

// NewSession wraps a device link. The session starts closed.
func NewSession(link Link) *Session {
	return &Session{link: link}
}

// Open initializes the device handle.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return ErrAlreadyOpen
	}
	if err := s.link.Init(); err != nil {
		return fmt.Errorf("failed to initialize device link: %w", err)
	}
	s.open = true
	tool.DefaultLogger.Info("device session opened")
	return nil
}

// Close releases the device handle and drops the config cache. Closing
// a closed session is a no-op, so Close can sit in a defer next to a
// failed Open path.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	s.tree = nil
	if err := s.link.Exit(); err != nil {
		return fmt.Errorf("failed to release device link: %w", err)
	}
	tool.DefaultLogger.Info("device session closed")
	return nil
}

// ReadConfigTree returns the cached configuration tree, performing a
// full hardware read only when forceRefresh is set or no cache exists.
func (s *Session) ReadConfigTree(forceRefresh bool) (*Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readTreeLocked(forceRefresh)
}

// WriteField locates a field by name anywhere in the cached tree and
// applies the value in memory. Nothing reaches hardware until Commit.
func (s *Session) WriteField(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFieldLocked(name, value)
}

// Commit pushes the cached tree, with any staged field writes, to the
// device in a single round-trip. The pushed tree stays the cache.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked()
}

// TriggerCapture asks the device to begin a capture. Completion is
// signaled asynchronously via events.
func (s *Session) TriggerCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggerLocked()
}

// WaitForEvent blocks up to timeout for the next device event.
func (s *Session) WaitForEvent(timeout time.Duration) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitEventLocked(timeout)
}

// DownloadFile fetches a file from device storage.
func (s *Session) DownloadFile(folder, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getFileLocked(folder, name)
}

// DeleteFile removes a file from device storage.
func (s *Session) DeleteFile(folder, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteFileLocked(folder, name)
}

// CapturePreview returns one JPEG preview frame. ErrNotReady means the
// device cannot produce a frame right now and the caller should skip it.
// Each call locks independently, so previews interleave with long
// protocols at frame granularity.
func (s *Session) CapturePreview() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewLocked()
}

func (s *Session) ensureOpenLocked() error {
	if !s.open {
		return ErrClosed
	}
	return nil
}

func (s *Session) readTreeLocked(force bool) (*Widget, error) {
	if err := s.ensureOpenLocked(); err != nil {
		return nil, err
	}
	if s.tree != nil && !force {
		return s.tree, nil
	}
	tree, err := s.link.GetConfigTree()
	if err != nil {
		return nil, fmt.Errorf("failed to read config tree: %w", err)
	}
	if err := tree.Normalize(); err != nil {
		return nil, err
	}
	s.tree = tree
	return tree, nil
}

func (s *Session) writeFieldLocked(name string, value any) error {
	tree, err := s.readTreeLocked(false)
	if err != nil {
		return err
	}
	w := tree.Find(name)
	if w == nil {
		return fmt.Errorf("%w: %q", ErrFieldUnknown, name)
	}
	return w.SetValue(value)
}

func (s *Session) commitLocked() error {
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if s.tree == nil {
		return nil
	}
	if err := s.link.PutConfigTree(s.tree); err != nil {
		return fmt.Errorf("failed to commit config tree: %w", err)
	}
	return nil
}

func (s *Session) triggerLocked() error {
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if err := s.link.TriggerCapture(); err != nil {
		return fmt.Errorf("failed to trigger capture: %w", err)
	}
	return nil
}

func (s *Session) waitEventLocked(timeout time.Duration) (Event, error) {
	if err := s.ensureOpenLocked(); err != nil {
		return Event{}, err
	}
	ev, err := s.link.WaitForEvent(timeout)
	if err != nil {
		return Event{}, fmt.Errorf("failed to wait for device event: %w", err)
	}
	return ev, nil
}

func (s *Session) getFileLocked(folder, name string) ([]byte, error) {
	if err := s.ensureOpenLocked(); err != nil {
		return nil, err
	}
	data, err := s.link.GetFile(folder, name)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s/%s: %w", folder, name, err)
	}
	return data, nil
}

func (s *Session) deleteFileLocked(folder, name string) error {
	if err := s.ensureOpenLocked(); err != nil {
		return err
	}
	if err := s.link.DeleteFile(folder, name); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", folder, name, err)
	}
	return nil
}

func (s *Session) previewLocked() ([]byte, error) {
	if err := s.ensureOpenLocked(); err != nil {
		return nil, err
	}
	frame, err := s.link.CapturePreview()
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to capture preview frame: %w", err)
	}
	return frame, nil
}
