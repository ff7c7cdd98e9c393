package camera

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Zahlii/godslr/tool"
)

// ApplyOptions controls one Apply pass.
type ApplyOptions struct {
	// Only restricts the pass to the listed fields. Nil means no
	// restriction; an empty non-nil list applies nothing.
	Only []FieldRef
	// ForceRefresh diffs against a fresh hardware read instead of the
	// cached tree. Required when writing one-shot action fields whose
	// committed value never reads back from the device.
	ForceRefresh bool
}

// Synchronizer writes desired typed configurations to the device as
// minimal diffs. Only fields the caller explicitly set participate;
// only those differing from the live value are staged; all staged
// fields go to hardware in one commit.
type Synchronizer struct {
	sess    *Session
	factory func() Profile
}

// NewSynchronizer builds a synchronizer over an open session. factory
// allocates an empty profile of the concrete generated type; it is used
// to snapshot the live configuration for scoped restoration.
func NewSynchronizer(sess *Session, factory func() Profile) *Synchronizer {
	return &Synchronizer{sess: sess, factory: factory}
}

// Apply diffs desired against the live configuration and commits the
// differing fields in a single round-trip. It returns exactly the set
// of fields written to hardware; callers use it for scoped restoration.
func (sy *Synchronizer) Apply(desired Profile, opts ApplyOptions) ([]FieldRef, error) {
	sy.sess.mu.Lock()
	defer sy.sess.mu.Unlock()
	return sy.applyLocked(desired, opts)
}

func (sy *Synchronizer) applyLocked(desired Profile, opts ApplyOptions) ([]FieldRef, error) {
	tree, err := sy.sess.readTreeLocked(opts.ForceRefresh)
	if err != nil {
		return nil, err
	}
	fields, err := profileFields(desired)
	if err != nil {
		return nil, err
	}
	var changed []FieldRef
	for _, fv := range fields {
		if opts.Only != nil && !slices.Contains(opts.Only, fv.Ref) {
			continue
		}
		sw := tree.Find(fv.Ref.Section)
		if sw == nil || !sw.Kind.IsSection() {
			return nil, fmt.Errorf("%w: section %q", ErrFieldUnknown, fv.Ref.Section)
		}
		lw := sw.Find(fv.Ref.Name)
		if lw == nil || lw.Kind.IsSection() {
			return nil, fmt.Errorf("%w: %s", ErrFieldUnknown, fv.Ref)
		}
		same, err := equalValue(lw, fv.Value)
		if err != nil {
			return nil, err
		}
		if same {
			continue
		}
		if err := lw.SetValue(fv.Value); err != nil {
			return nil, err
		}
		changed = append(changed, fv.Ref)
	}
	if len(changed) == 0 {
		return nil, nil
	}
	if err := sy.sess.commitLocked(); err != nil {
		return nil, err
	}
	tool.DefaultLogger.Infof("updating camera config: %s", refList(changed))
	return changed, nil
}

// WithRollback applies a temporary configuration, runs fn, and always
// restores the previously-live values of exactly the fields the
// application changed, including on error and panic paths. fn runs
// under the session lock and must not call back into methods of this
// package that take it.
func (sy *Synchronizer) WithRollback(temp Profile, fn func() error) error {
	sy.sess.mu.Lock()
	defer sy.sess.mu.Unlock()
	return sy.withRollbackLocked(temp, fn)
}

func (sy *Synchronizer) withRollbackLocked(temp Profile, fn func() error) (err error) {
	tree, err := sy.sess.readTreeLocked(false)
	if err != nil {
		return err
	}
	old := sy.factory()
	if err := Decode(tree, old); err != nil {
		return err
	}
	changed, err := sy.applyLocked(temp, ApplyOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if len(changed) == 0 {
			return
		}
		if _, rerr := sy.applyLocked(old, ApplyOptions{Only: changed}); rerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore camera config: %w", rerr))
		}
	}()
	return fn()
}

// equalValue compares a widget's live value against a desired plain
// value, demanding matching types.
func equalValue(w *Widget, desired any) (bool, error) {
	switch dv := desired.(type) {
	case int:
		cur, ok := w.Value.(int)
		if !ok {
			return false, fmt.Errorf("%w: field %q holds %T, desired value is an int",
				ErrDecode, w.Name, w.Value)
		}
		return cur == dv, nil
	case string:
		cur, ok := w.Value.(string)
		if !ok {
			return false, fmt.Errorf("%w: field %q holds %T, desired value is a string",
				ErrDecode, w.Name, w.Value)
		}
		return cur == dv, nil
	default:
		return false, fmt.Errorf("%w: unsupported desired value type %T for field %q",
			ErrDecode, desired, w.Name)
	}
}

func refList(refs []FieldRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
