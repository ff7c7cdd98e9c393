package camera

import "time"

// Profile is the contract a generated, per-model typed configuration
// satisfies. A profile is a nested struct of pointer fields tagged with
// `gp` names; nil means "not set, do not touch". Decode fills one from
// a config tree, the Synchronizer diffs one against the live tree.
//
// The action methods return a modified deep copy and never mutate the
// receiver, so a snapshot stays valid as the restore target.
type Profile interface {
	// IsRaw reports whether the device currently writes raw images.
	IsRaw() bool
	// IsCardCapture reports whether captures target the memory card
	// rather than internal RAM.
	IsCardCapture() bool
	// PressShutter returns a copy with the shutter-press action set.
	PressShutter() Profile
	// ReleaseShutter returns a copy with the shutter-release action set.
	ReleaseShutter() Profile
	// FocusStep returns a copy with a manual focus drive action over the
	// given signed distance set.
	FocusStep(distance int) Profile
	// CameraTime returns the device clock, when the profile carries it.
	CameraTime() (time.Time, bool)
}

// FieldRef names one leaf field by its section and field name.
type FieldRef struct {
	Section string `json:"section"`
	Name    string `json:"name"`
}

func (f FieldRef) String() string {
	return f.Section + "/" + f.Name
}
