package camera

import "errors"

// Sentinel errors for the failure kinds callers are expected to branch on.
// Transport-level failures from a Link are wrapped, not replaced, so the
// original cause stays reachable through errors.Is / errors.As.
var (
	// ErrClosed is returned when an operation requires an open session.
	ErrClosed = errors.New("session not open")
	// ErrAlreadyOpen is returned by Open on a session that is already open.
	ErrAlreadyOpen = errors.New("session already open")
	// ErrDecode marks a config value whose type disagrees with the typed field.
	ErrDecode = errors.New("config value type mismatch")
	// ErrFieldUnknown marks a write to a field the device tree does not carry.
	ErrFieldUnknown = errors.New("config field not found")
	// ErrChoice marks a value outside a Radio/Menu widget's allowed choices.
	ErrChoice = errors.New("value not allowed for field")
	// ErrNoCaptureEvent means event collection finished with zero images.
	ErrNoCaptureEvent = errors.New("no capture event detected")
	// ErrEmptyCapture means every downloaded image was empty.
	ErrEmptyCapture = errors.New("capture produced no usable image")
	// ErrValidation marks a request rejected before any hardware interaction.
	ErrValidation = errors.New("capture request validation failed")
	// ErrNotReady is returned by preview reads while the device is between
	// states. Callers skip the frame instead of failing.
	ErrNotReady = errors.New("device not ready for preview frame")
	// ErrStreamDone ends a preview stream that reached one of its limits.
	ErrStreamDone = errors.New("preview stream finished")
	// ErrMalformedTree marks a config tree violating node invariants.
	ErrMalformedTree = errors.New("malformed config tree")
)
