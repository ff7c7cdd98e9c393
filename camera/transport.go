package camera

import "time"

// EventKind classifies the hardware events a Link can report.
type EventKind int

const (
	// EventTimeout means no event arrived within the wait window.
	EventTimeout EventKind = iota
	// EventFileAdded means the device stored a new file.
	EventFileAdded
	// EventCaptureComplete means the device finished a capture cycle.
	EventCaptureComplete
	// EventOther covers events this layer does not interpret.
	EventOther
)

func (k EventKind) String() string {
	switch k {
	case EventTimeout:
		return "timeout"
	case EventFileAdded:
		return "file-added"
	case EventCaptureComplete:
		return "capture-complete"
	default:
		return "other"
	}
}

// Event is one hardware event. Folder and Name are set for
// EventFileAdded only and locate the new file in device storage.
type Event struct {
	Kind   EventKind
	Folder string
	Name   string
}

// Link is the transport boundary to one physical or simulated device.
// Implementations are not safe for concurrent use; the Session owns the
// serialization. Transport negotiation lives behind this interface and
// is no concern of the packages above it.
type Link interface {
	// Init acquires the device. No other method may be called before it.
	Init() error
	// Exit releases the device. The link must not be used afterwards.
	Exit() error
	// GetConfigTree performs a full configuration read.
	GetConfigTree() (*Widget, error)
	// PutConfigTree pushes a full, possibly multi-field-modified tree in
	// one round-trip.
	PutConfigTree(tree *Widget) error
	// TriggerCapture asks the device to begin a capture. Completion is
	// signaled later through events.
	TriggerCapture() error
	// WaitForEvent blocks up to timeout for the next device event. A
	// quiet window yields an Event with Kind EventTimeout, not an error.
	WaitForEvent(timeout time.Duration) (Event, error)
	// GetFile fetches a file from device storage.
	GetFile(folder, name string) ([]byte, error)
	// DeleteFile removes a file from device storage.
	DeleteFile(folder, name string) error
	// CapturePreview returns one JPEG preview frame. While the device is
	// between states it returns ErrNotReady, which callers treat as
	// "skip this frame".
	CapturePreview() ([]byte, error)
}
