package camera

import (
	"fmt"
	"reflect"
)

// Decode fills a typed profile from a config tree. Top-level profile
// fields tagged `gp` name sections, their struct fields name leaves.
// Fields the device tree does not carry stay nil; device fields the
// profile does not know are ignored. A leaf whose value type disagrees
// with the field type is an error, never a silent coercion.
func Decode(tree *Widget, dst Profile) error {
	root, err := structValue(dst)
	if err != nil {
		return err
	}
	rt := root.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag := sf.Tag.Get("gp")
		if tag == "" || !sf.IsExported() {
			continue
		}
		if sf.Type.Kind() != reflect.Pointer || sf.Type.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("profile section %s must be a struct pointer", sf.Name)
		}
		sw := tree.Find(tag)
		if sw == nil || !sw.Kind.IsSection() {
			continue
		}
		secPtr := reflect.New(sf.Type.Elem())
		if err := decodeSection(sw, secPtr.Elem(), tag); err != nil {
			return err
		}
		root.Field(i).Set(secPtr)
	}
	return nil
}

func decodeSection(sw *Widget, sec reflect.Value, section string) error {
	st := sec.Type()
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		tag := sf.Tag.Get("gp")
		if tag == "" || !sf.IsExported() {
			continue
		}
		if sf.Type.Kind() != reflect.Pointer {
			return fmt.Errorf("profile field %s.%s must be a pointer", section, sf.Name)
		}
		lw := sw.Find(tag)
		if lw == nil || lw.Kind.IsSection() {
			continue
		}
		val := reflect.New(sf.Type.Elem())
		switch wv := lw.Value.(type) {
		case int:
			if !isIntKind(sf.Type.Elem().Kind()) {
				return fmt.Errorf("%w: %s/%s is an int on the device, field wants %s",
					ErrDecode, section, tag, sf.Type.Elem().Kind())
			}
			val.Elem().SetInt(int64(wv))
		case string:
			if sf.Type.Elem().Kind() != reflect.String {
				return fmt.Errorf("%w: %s/%s is a string on the device, field wants %s",
					ErrDecode, section, tag, sf.Type.Elem().Kind())
			}
			val.Elem().SetString(wv)
		default:
			return fmt.Errorf("%w: %s/%s carries unsupported value type %T",
				ErrDecode, section, tag, lw.Value)
		}
		sec.Field(i).Set(val)
	}
	return nil
}

// fieldValue is one explicitly-set leaf of a profile, unwrapped to the
// plain value the widget layer understands.
type fieldValue struct {
	Ref   FieldRef
	Value any
}

// profileFields enumerates every explicitly-set leaf field of a profile
// in declaration order. Unset (nil) sections and fields are skipped.
func profileFields(p Profile) ([]fieldValue, error) {
	root, err := structValue(p)
	if err != nil {
		return nil, err
	}
	var out []fieldValue
	rt := root.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag := sf.Tag.Get("gp")
		if tag == "" || !sf.IsExported() {
			continue
		}
		fv := root.Field(i)
		if fv.Kind() != reflect.Pointer || fv.IsNil() {
			continue
		}
		sec := fv.Elem()
		st := sec.Type()
		for j := 0; j < st.NumField(); j++ {
			lf := st.Field(j)
			ltag := lf.Tag.Get("gp")
			if ltag == "" || !lf.IsExported() {
				continue
			}
			pv := sec.Field(j)
			if pv.Kind() != reflect.Pointer || pv.IsNil() {
				continue
			}
			ev := pv.Elem()
			var val any
			switch {
			case ev.Kind() == reflect.String:
				val = ev.String()
			case isIntKind(ev.Kind()):
				val = int(ev.Int())
			default:
				return nil, fmt.Errorf("profile field %s.%s has unsupported type %s",
					tag, lf.Name, ev.Kind())
			}
			out = append(out, fieldValue{Ref: FieldRef{Section: tag, Name: ltag}, Value: val})
		}
	}
	return out, nil
}

func structValue(p any) (reflect.Value, error) {
	v := reflect.ValueOf(p)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("profile must be a non-nil struct pointer, got %T", p)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("profile must point at a struct, got %T", p)
	}
	return v, nil
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}
