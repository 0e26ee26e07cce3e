package streamer

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TagName is the struct tag key read by the streamer.
const TagName = "hep"

type field struct {
	name  string
	index int
	typ   reflect.Type
}

var fieldCache sync.Map // reflect.Type -> []field

// fieldsOf returns the streamed members of struct type t in declaration order.
func fieldsOf(t reflect.Type) []field {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]field)
	}
	var fields []field
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup(TagName); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fields = append(fields, field{name: name, index: i, typ: sf.Type})
	}
	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.([]field)
}

// TypeName returns the stream type name of t: the kind for basic types,
// "[N]elem" for arrays, "[]elem" for slices and the Go type name for structs.
func TypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Array:
		return fmt.Sprintf("[%d]%s", t.Len(), TypeName(t.Elem()))
	case reflect.Slice:
		return "[]" + TypeName(t.Elem())
	case reflect.Struct:
		return t.Name()
	default:
		return t.Kind().String()
	}
}

// Validate reports whether values of type t can be streamed.
func Validate(t reflect.Type) error {
	return validate(t, map[reflect.Type]bool{})
}

func validate(t reflect.Type, seen map[reflect.Type]bool) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return nil
	case reflect.Array, reflect.Slice:
		return validate(t.Elem(), seen)
	case reflect.Struct:
		if t.Name() == "" {
			return fmt.Errorf("%w: anonymous struct %s", ErrUnsupportedType, t)
		}
		if seen[t] {
			return nil
		}
		seen[t] = true
		for _, f := range fieldsOf(t) {
			if err := validate(f.typ, seen); err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name(), f.name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// nestedStructs returns the struct types reachable from t through arrays
// and slices, without descending into the structs themselves.
func nestedStructs(t reflect.Type) []reflect.Type {
	switch t.Kind() {
	case reflect.Array, reflect.Slice:
		return nestedStructs(t.Elem())
	case reflect.Struct:
		return []reflect.Type{t}
	default:
		return nil
	}
}

// fieldAt walks a field index path from v.
func fieldAt(v reflect.Value, path []int) reflect.Value {
	for _, i := range path {
		v = v.Field(i)
	}
	return v
}

func appendPath(path []int, i int) []int {
	out := make([]int, len(path)+1)
	copy(out, path)
	out[len(path)] = i
	return out
}
