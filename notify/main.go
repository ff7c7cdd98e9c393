// Package notify fans booth events out to every connected sink, the
// WebSocket hub and, when configured, the MQTT capture topic.
package notify

import (
	"sync"

	"github.com/Zahlii/godslr/tool"
	"github.com/Zahlii/godslr/types"
)

// Hub is a notification sink. The WebSocket hub and the MQTT announcer
// both implement it.
type Hub interface {
	Broadcast(notification *types.Notification)
}

var (
	mu        sync.RWMutex
	useNotify = true
	sinks     []Hub
)

// SetUseNotify sets whether to use notify
func SetUseNotify(use bool) {
	mu.Lock()
	defer mu.Unlock()
	useNotify = use
}

// Enabled reports whether notifications are dispatched.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return useNotify
}

// AddSink registers a notification sink.
func AddSink(h Hub) {
	if h == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	sinks = append(sinks, h)
}

// Send dispatches the notification to every sink.
func Send(notification *types.Notification) {
	if notification == nil || !Enabled() {
		return
	}
	mu.RLock()
	targets := make([]Hub, len(sinks))
	copy(targets, sinks)
	mu.RUnlock()
	for _, sink := range targets {
		sink.Broadcast(notification)
	}
	tool.DefaultLogger.Debugf("Notification sent: %s - %s", notification.Type, notification.Title)
}

// SendSimpleNotification sends a text-only notification.
func SendSimpleNotification(title, message string) {
	Send(&types.Notification{Type: "info", Title: title, Message: message})
}

// SendCaptureStart tells frontends a capture sequence began so they can
// freeze the preview.
func SendCaptureStart(source string) {
	Send(&types.Notification{
		Type:  types.NotifyCaptureStart,
		Title: "Capture started",
		Data:  map[string]any{"source": source},
	})
}

// SendCaptureDone pushes the fresh snapshot to frontends.
func SendCaptureDone(data map[string]any) {
	Send(&types.Notification{
		Type:  types.NotifyCaptureDone,
		Title: "Capture finished",
		Data:  data,
	})
}

// SendCaptureError reports a failed capture.
func SendCaptureError(err error) {
	Send(&types.Notification{
		Type:    types.NotifyCaptureError,
		Title:   "Capture failed",
		Message: err.Error(),
	})
}

// SendPrintDone reports a submitted print job.
func SendPrintDone(printerName string) {
	Send(&types.Notification{
		Type:  types.NotifyPrintDone,
		Title: "Print submitted",
		Data:  map[string]any{"printer": printerName},
	})
}

// SendButtonPress reports a hardware button press so the UI can start
// its countdown.
func SendButtonPress(kind string) {
	Send(&types.Notification{
		Type:  types.NotifyButtonPress,
		Title: "Button pressed",
		Data:  map[string]any{"kind": kind},
	})
}
