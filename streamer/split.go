package streamer

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// LeafKind tells how a leaf maps onto the branch value.
type LeafKind uint8

const (
	// LeafValue holds one member per entry.
	LeafValue LeafKind = iota
	// LeafCounter holds the length of a split slice of structs.
	LeafCounter
	// LeafElement holds one member of every element of a split slice.
	LeafElement
)

func (k LeafKind) String() string {
	switch k {
	case LeafValue:
		return "value"
	case LeafCounter:
		return "counter"
	case LeafElement:
		return "element"
	default:
		return fmt.Sprintf("LeafKind(%d)", uint8(k))
	}
}

// maxCounter bounds the element count a counter leaf may announce.
const maxCounter = 1 << 26

// Leaf is one column of a split branch.
type Leaf struct {
	Name    string
	Type    string
	Kind    LeafKind
	Counter string // name of the counter leaf, for LeafElement

	path []int // from the branch value to the member, or to the slice
	elem []int // from a slice element to the member
}

// Split decomposes t into leaves. Members of nested structs and of slices
// of structs get their own leaves while their depth is below splitLevel.
// A non-struct type or a splitLevel <= 0 yields one leaf holding the whole value.
func Split(t reflect.Type, splitLevel int) []Leaf {
	if t.Kind() != reflect.Struct || splitLevel <= 0 {
		return []Leaf{{Type: TypeName(t), Kind: LeafValue}}
	}
	leaves := splitStruct(nil, t, "", nil, 1, splitLevel)
	if len(leaves) == 0 {
		return []Leaf{{Type: TypeName(t), Kind: LeafValue}}
	}
	return leaves
}

func splitStruct(leaves []Leaf, t reflect.Type, prefix string, path []int, depth, level int) []Leaf {
	for _, f := range fieldsOf(t) {
		name := prefix + f.name
		fpath := appendPath(path, f.index)
		switch {
		case f.typ.Kind() == reflect.Struct && depth < level:
			leaves = splitStruct(leaves, f.typ, name+".", fpath, depth+1, level)
		case f.typ.Kind() == reflect.Slice && f.typ.Elem().Kind() == reflect.Struct && depth < level:
			counter := name + "_"
			leaves = append(leaves, Leaf{Name: counter, Type: "int32", Kind: LeafCounter, path: fpath})
			leaves = splitElem(leaves, f.typ.Elem(), name+".", fpath, nil, counter, depth+1, level)
		default:
			leaves = append(leaves, Leaf{Name: name, Type: TypeName(f.typ), Kind: LeafValue, path: fpath})
		}
	}
	return leaves
}

func splitElem(leaves []Leaf, t reflect.Type, prefix string, slice, elem []int, counter string, depth, level int) []Leaf {
	for _, f := range fieldsOf(t) {
		name := prefix + f.name
		epath := appendPath(elem, f.index)
		if f.typ.Kind() == reflect.Struct && depth < level {
			leaves = splitElem(leaves, f.typ, name+".", slice, epath, counter, depth+1, level)
			continue
		}
		leaves = append(leaves, Leaf{
			Name:    name,
			Type:    TypeName(f.typ),
			Kind:    LeafElement,
			Counter: counter,
			path:    slice,
			elem:    epath,
		})
	}
	return leaves
}

// Append appends the leaf's encoding of the branch value root to dst.
func (l *Leaf) Append(dst []byte, root reflect.Value) []byte {
	v := fieldAt(root, l.path)
	switch l.Kind {
	case LeafCounter:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.Len()))
	case LeafElement:
		for i := range v.Len() {
			dst = AppendValue(dst, fieldAt(v.Index(i), l.elem))
		}
		return dst
	default:
		return AppendValue(dst, v)
	}
}

// Decode sets the leaf's part of root from src, which must hold exactly one
// entry. Counter leaves must be decoded before their element leaves.
func (l *Leaf) Decode(src []byte, root reflect.Value) error {
	v := fieldAt(root, l.path)
	var err error
	switch l.Kind {
	case LeafCounter:
		if len(src) != 4 {
			return fmt.Errorf("%w: counter %q has %d bytes", ErrMalformed, l.Name, len(src))
		}
		n := binary.LittleEndian.Uint32(src)
		if n > maxCounter {
			return fmt.Errorf("%w: counter %q is %d", ErrMalformed, l.Name, n)
		}
		if n == 0 {
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		v.Set(reflect.MakeSlice(v.Type(), int(n), int(n)))
		return nil
	case LeafElement:
		for i := range v.Len() {
			if src, err = DecodeValue(src, fieldAt(v.Index(i), l.elem)); err != nil {
				return fmt.Errorf("leaf %q element %d: %w", l.Name, i, err)
			}
		}
	default:
		if src, err = DecodeValue(src, v); err != nil {
			return fmt.Errorf("leaf %q: %w", l.Name, err)
		}
	}
	if len(src) != 0 {
		return fmt.Errorf("%w: leaf %q has %d trailing bytes", ErrMalformed, l.Name, len(src))
	}
	return nil
}

// SameLayout reports whether two leaf lists describe the same columns.
func SameLayout(a, b []Leaf) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type || a[i].Kind != b[i].Kind || a[i].Counter != b[i].Counter {
			return false
		}
	}
	return true
}
