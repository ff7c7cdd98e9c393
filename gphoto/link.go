//go:build gphoto2

package gphoto

/*
#cgo pkg-config: libgphoto2
#include <gphoto2/gphoto2-camera.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"strconv"
	"time"
	"unsafe"

	"github.com/Zahlii/godslr/camera"
)

// Link drives one tethered camera through libgphoto2. It implements
// camera.Link; the session above it owns all serialization.
type Link struct {
	ctx *C.GPContext
	cam *C.Camera
}

// NewLink allocates an unconnected camera handle. The device is claimed
// on Init.
func NewLink() (camera.Link, error) {
	ctx := C.gp_context_new()
	if ctx == nil {
		return nil, fmt.Errorf("failed to allocate gphoto2 context")
	}
	var cam *C.Camera
	if ret := C.gp_camera_new(&cam); ret < C.GP_OK {
		C.gp_context_unref(ctx)
		return nil, gpError("failed to allocate camera handle", ret)
	}
	return &Link{ctx: ctx, cam: cam}, nil
}

func (l *Link) Init() error {
	if ret := C.gp_camera_init(l.cam, l.ctx); ret < C.GP_OK {
		return gpError("failed to initialize camera (is it connected and powered on?)", ret)
	}
	return nil
}

func (l *Link) Exit() error {
	ret := C.gp_camera_exit(l.cam, l.ctx)
	C.gp_camera_unref(l.cam)
	C.gp_context_unref(l.ctx)
	l.cam = nil
	l.ctx = nil
	if ret < C.GP_OK {
		return gpError("failed to release camera", ret)
	}
	return nil
}

func (l *Link) GetConfigTree() (*camera.Widget, error) {
	var root *C.CameraWidget
	if ret := C.gp_camera_get_config(l.cam, &root, l.ctx); ret < C.GP_OK {
		return nil, gpError("failed to read camera config", ret)
	}
	defer C.gp_widget_free(root)
	return buildTree(root)
}

func (l *Link) PutConfigTree(tree *camera.Widget) error {
	var root *C.CameraWidget
	if ret := C.gp_camera_get_config(l.cam, &root, l.ctx); ret < C.GP_OK {
		return gpError("failed to read camera config before write", ret)
	}
	defer C.gp_widget_free(root)

	if err := applyLeaves(root, tree); err != nil {
		return err
	}
	if ret := C.gp_camera_set_config(l.cam, root, l.ctx); ret < C.GP_OK {
		return gpError("failed to write camera config", ret)
	}
	return nil
}

func (l *Link) TriggerCapture() error {
	if ret := C.gp_camera_trigger_capture(l.cam, l.ctx); ret < C.GP_OK {
		return gpError("failed to trigger capture", ret)
	}
	return nil
}

func (l *Link) WaitForEvent(timeout time.Duration) (camera.Event, error) {
	var evtType C.CameraEventType
	var data unsafe.Pointer
	ret := C.gp_camera_wait_for_event(l.cam, C.int(timeout/time.Millisecond), &evtType, &data, l.ctx)
	if ret < C.GP_OK {
		return camera.Event{}, gpError("failed to wait for camera event", ret)
	}
	defer C.free(data)

	switch evtType {
	case C.GP_EVENT_TIMEOUT:
		return camera.Event{Kind: camera.EventTimeout}, nil
	case C.GP_EVENT_FILE_ADDED:
		path := (*C.CameraFilePath)(data)
		return camera.Event{
			Kind:   camera.EventFileAdded,
			Folder: C.GoString(&path.folder[0]),
			Name:   C.GoString(&path.name[0]),
		}, nil
	case C.GP_EVENT_CAPTURE_COMPLETE:
		return camera.Event{Kind: camera.EventCaptureComplete}, nil
	default:
		return camera.Event{Kind: camera.EventOther}, nil
	}
}

func (l *Link) GetFile(folder, name string) ([]byte, error) {
	var file *C.CameraFile
	if ret := C.gp_file_new(&file); ret < C.GP_OK {
		return nil, gpError("failed to allocate file buffer", ret)
	}
	defer C.gp_file_unref(file)

	cFolder := C.CString(folder)
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cFolder))
	defer C.free(unsafe.Pointer(cName))

	if ret := C.gp_camera_file_get(l.cam, cFolder, cName, C.GP_FILE_TYPE_NORMAL, file, l.ctx); ret < C.GP_OK {
		return nil, gpError(fmt.Sprintf("failed to download %s/%s", folder, name), ret)
	}

	var data *C.char
	var size C.ulong
	if ret := C.gp_file_get_data_and_size(file, &data, &size); ret < C.GP_OK {
		return nil, gpError("failed to read file buffer", ret)
	}
	return C.GoBytes(unsafe.Pointer(data), C.int(size)), nil
}

func (l *Link) DeleteFile(folder, name string) error {
	cFolder := C.CString(folder)
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cFolder))
	defer C.free(unsafe.Pointer(cName))

	if ret := C.gp_camera_file_delete(l.cam, cFolder, cName, l.ctx); ret < C.GP_OK {
		return gpError(fmt.Sprintf("failed to delete %s/%s", folder, name), ret)
	}
	return nil
}

func (l *Link) CapturePreview() ([]byte, error) {
	var file *C.CameraFile
	if ret := C.gp_file_new(&file); ret < C.GP_OK {
		return nil, gpError("failed to allocate file buffer", ret)
	}
	defer C.gp_file_unref(file)

	if ret := C.gp_camera_capture_preview(l.cam, file, l.ctx); ret < C.GP_OK {
		// Busy means the device is between states, callers skip the frame.
		if ret == C.GP_ERROR_CAMERA_BUSY || ret == C.GP_ERROR {
			return nil, camera.ErrNotReady
		}
		return nil, gpError("failed to capture preview", ret)
	}

	var data *C.char
	var size C.ulong
	if ret := C.gp_file_get_data_and_size(file, &data, &size); ret < C.GP_OK {
		return nil, gpError("failed to read preview buffer", ret)
	}
	return C.GoBytes(unsafe.Pointer(data), C.int(size)), nil
}

// buildTree converts a native widget tree into the transport-neutral
// form. Kind casts directly, the numeric codes match.
func buildTree(w *C.CameraWidget) (*camera.Widget, error) {
	var cName, cLabel *C.char
	C.gp_widget_get_name(w, &cName)
	C.gp_widget_get_label(w, &cLabel)
	var wt C.CameraWidgetType
	C.gp_widget_get_type(w, &wt)

	node := &camera.Widget{
		Name:  C.GoString(cName),
		Label: C.GoString(cLabel),
		Kind:  camera.Kind(wt),
	}

	if node.Kind.IsSection() {
		n := C.gp_widget_count_children(w)
		for i := C.int(0); i < n; i++ {
			var child *C.CameraWidget
			if ret := C.gp_widget_get_child(w, i, &child); ret < C.GP_OK {
				return nil, gpError(fmt.Sprintf("failed to walk children of %s", node.Name), ret)
			}
			sub, err := buildTree(child)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, sub)
		}
		return node, nil
	}

	switch node.Kind {
	case camera.KindText, camera.KindRadio, camera.KindMenu:
		var val *C.char
		if ret := C.gp_widget_get_value(w, unsafe.Pointer(&val)); ret < C.GP_OK {
			return nil, gpError(fmt.Sprintf("failed to read %s", node.Name), ret)
		}
		node.Value = C.GoString(val)
	case camera.KindRange:
		var val C.float
		if ret := C.gp_widget_get_value(w, unsafe.Pointer(&val)); ret < C.GP_OK {
			return nil, gpError(fmt.Sprintf("failed to read %s", node.Name), ret)
		}
		node.Value = strconv.FormatFloat(float64(val), 'g', -1, 32)
	case camera.KindToggle, camera.KindDate:
		var val C.int
		if ret := C.gp_widget_get_value(w, unsafe.Pointer(&val)); ret < C.GP_OK {
			return nil, gpError(fmt.Sprintf("failed to read %s", node.Name), ret)
		}
		node.Value = int(val)
	case camera.KindButton:
		// Buttons carry a press callback, not a value.
		node.Value = ""
	}

	if node.Kind == camera.KindRadio || node.Kind == camera.KindMenu {
		n := C.gp_widget_count_choices(w)
		for i := C.int(0); i < n; i++ {
			var choice *C.char
			if ret := C.gp_widget_get_choice(w, i, &choice); ret < C.GP_OK {
				return nil, gpError(fmt.Sprintf("failed to read choices of %s", node.Name), ret)
			}
			node.Choices = append(node.Choices, C.GoString(choice))
		}
	}
	return node, nil
}

// applyLeaves pushes every changed leaf value of node onto the native
// tree. Unchanged leaves are left alone so the device only applies what
// actually moved.
func applyLeaves(root *C.CameraWidget, node *camera.Widget) error {
	if node.Kind.IsSection() {
		for _, c := range node.Children {
			if err := applyLeaves(root, c); err != nil {
				return err
			}
		}
		return nil
	}
	if node.Kind == camera.KindButton || node.Value == nil {
		return nil
	}

	cName := C.CString(node.Name)
	defer C.free(unsafe.Pointer(cName))
	var w *C.CameraWidget
	if ret := C.gp_widget_get_child_by_name(root, cName, &w); ret < C.GP_OK {
		// A field the device no longer exposes; the next read drops it.
		return nil
	}

	switch v := node.Value.(type) {
	case int:
		var cur C.int
		C.gp_widget_get_value(w, unsafe.Pointer(&cur))
		if int(cur) == v {
			return nil
		}
		val := C.int(v)
		if ret := C.gp_widget_set_value(w, unsafe.Pointer(&val)); ret < C.GP_OK {
			return gpError(fmt.Sprintf("failed to set %s", node.Name), ret)
		}
	case string:
		if node.Kind == camera.KindRange {
			f, err := strconv.ParseFloat(v, 32)
			if err != nil {
				return fmt.Errorf("failed to parse range value %q for %s: %w", v, node.Name, err)
			}
			val := C.float(f)
			if ret := C.gp_widget_set_value(w, unsafe.Pointer(&val)); ret < C.GP_OK {
				return gpError(fmt.Sprintf("failed to set %s", node.Name), ret)
			}
			return nil
		}
		var cur *C.char
		C.gp_widget_get_value(w, unsafe.Pointer(&cur))
		if cur != nil && C.GoString(cur) == v {
			return nil
		}
		cVal := C.CString(v)
		defer C.free(unsafe.Pointer(cVal))
		if ret := C.gp_widget_set_value(w, unsafe.Pointer(cVal)); ret < C.GP_OK {
			return gpError(fmt.Sprintf("failed to set %s", node.Name), ret)
		}
	}
	return nil
}

func gpError(op string, code C.int) error {
	return fmt.Errorf("%s: %s (%d)", op, C.GoString(C.gp_result_as_string(code)), int(code))
}
