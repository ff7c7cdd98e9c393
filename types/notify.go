package types

// Notification event types pushed to booth frontends.
const (
	NotifyCaptureStart = "capture_start"
	NotifyCaptureDone  = "capture_done"
	NotifyCaptureError = "capture_error"
	NotifyPrintDone    = "print_done"
	NotifyButtonPress  = "button_press"
	NotifyLayoutChange = "layout_change"
)

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "capture_start", "capture_done", etc.
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}
