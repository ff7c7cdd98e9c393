package camera

import (
	"fmt"
	"slices"
)

// Kind enumerates the node types a device exposes in its configuration
// tree. The numeric values mirror the native widget type codes, so a
// transport can cast them directly.
type Kind int

const (
	KindWindow Kind = iota
	KindSection
	KindText
	KindRange
	KindToggle
	KindRadio
	KindMenu
	KindButton
	KindDate
)

var kindNames = map[Kind]string{
	KindWindow:  "window",
	KindSection: "section",
	KindText:    "text",
	KindRange:   "range",
	KindToggle:  "toggle",
	KindRadio:   "radio",
	KindMenu:    "menu",
	KindButton:  "button",
	KindDate:    "date",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsSection reports whether nodes of this kind carry children.
func (k Kind) IsSection() bool {
	return k == KindWindow || k == KindSection
}

// IsInt reports whether leaves of this kind carry an integer value.
// Every other leaf kind carries a string.
func (k Kind) IsInt() bool {
	return k == KindToggle || k == KindDate
}

// MarshalJSON encodes the kind as its lowercase name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Widget is one node of the device configuration tree. Window and
// Section nodes carry Children; every other kind is a leaf and carries
// Value (int for Toggle/Date, string otherwise). Choices is populated
// for Radio and Menu leaves only.
type Widget struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     Kind      `json:"kind"`
	Value    any       `json:"value,omitempty"`
	Choices  []string  `json:"choices,omitempty"`
	Children []*Widget `json:"children,omitempty"`
}

// Find returns the first widget named name in a depth-first walk of the
// subtree rooted at w, or nil.
func (w *Widget) Find(name string) *Widget {
	if w == nil {
		return nil
	}
	if w.Name == name {
		return w
	}
	for _, c := range w.Children {
		if hit := c.Find(name); hit != nil {
			return hit
		}
	}
	return nil
}

// Clone returns a deep copy of the subtree rooted at w.
func (w *Widget) Clone() *Widget {
	if w == nil {
		return nil
	}
	cp := &Widget{
		Name:  w.Name,
		Label: w.Label,
		Kind:  w.Kind,
		Value: w.Value,
	}
	if w.Choices != nil {
		cp.Choices = append([]string(nil), w.Choices...)
	}
	for _, c := range w.Children {
		cp.Children = append(cp.Children, c.Clone())
	}
	return cp
}

// SetValue applies a value to a leaf widget, validating the value type
// against the widget kind and, for Radio/Menu leaves, membership in the
// widget's choices.
func (w *Widget) SetValue(value any) error {
	if w.Kind.IsSection() {
		return fmt.Errorf("%w: %q is a %s, not a field", ErrFieldUnknown, w.Name, w.Kind)
	}
	switch v := value.(type) {
	case int:
		if !w.Kind.IsInt() {
			return fmt.Errorf("%w: field %q wants a string, got int %d", ErrDecode, w.Name, v)
		}
	case string:
		if w.Kind.IsInt() {
			return fmt.Errorf("%w: field %q wants an int, got string %q", ErrDecode, w.Name, v)
		}
		if w.Kind == KindRadio || w.Kind == KindMenu {
			if !slices.Contains(w.Choices, v) {
				return fmt.Errorf("%w: %q is not a choice of %q", ErrChoice, v, w.Name)
			}
		}
	default:
		return fmt.Errorf("%w: field %q cannot hold %T", ErrDecode, w.Name, value)
	}
	w.Value = value
	return nil
}

// Normalize validates node invariants across the subtree and appends the
// current value to the choice list of any Radio/Menu leaf whose
// discovered choices lack it. It is run on every tree read from hardware.
func (w *Widget) Normalize() error {
	if w.Kind.IsSection() {
		if w.Value != nil {
			return fmt.Errorf("%w: section %q carries a value", ErrMalformedTree, w.Name)
		}
		for _, c := range w.Children {
			if err := c.Normalize(); err != nil {
				return err
			}
		}
		return nil
	}
	if len(w.Children) > 0 {
		return fmt.Errorf("%w: leaf %q carries children", ErrMalformedTree, w.Name)
	}
	switch v := w.Value.(type) {
	case nil:
		return fmt.Errorf("%w: leaf %q carries no value", ErrMalformedTree, w.Name)
	case int:
		if !w.Kind.IsInt() {
			return fmt.Errorf("%w: %s leaf %q carries an int", ErrMalformedTree, w.Kind, w.Name)
		}
	case string:
		if w.Kind.IsInt() {
			return fmt.Errorf("%w: %s leaf %q carries a string", ErrMalformedTree, w.Kind, w.Name)
		}
		if (w.Kind == KindRadio || w.Kind == KindMenu) && !slices.Contains(w.Choices, v) {
			w.Choices = append(w.Choices, v)
		}
	default:
		return fmt.Errorf("%w: leaf %q carries unsupported value type %T", ErrMalformedTree, w.Name, v)
	}
	return nil
}
