// Package wire is a small protobuf wire-format helper used for every
// self-describing structure in a hepio file: the key directory, tree
// metadata, streamer infos, histograms and entry lists.
//
// Messages are written field by field with protowire, without generated
// code. Unknown fields are skipped on decode, so readers tolerate fields
// added by newer writers.
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned when a buffer is not valid wire data.
var ErrMalformed = errors.New("wire: malformed message")

// Number is a field number.
type Number = protowire.Number

// Encoder appends fields to a buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with the given initial capacity.
func NewEncoder(capacity int) *Encoder {
	return &Encoder{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded message.
func (e *Encoder) Bytes() []byte { return e.buf }

// Uint writes an unsigned varint field. Zero values are omitted.
func (e *Encoder) Uint(num Number, v uint64) {
	if v == 0 {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, v)
}

// Int writes a zigzag-encoded signed varint field. Zero values are omitted.
func (e *Encoder) Int(num Number, v int64) {
	if v == 0 {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, protowire.EncodeZigZag(v))
}

// Bool writes a boolean field. False is omitted.
func (e *Encoder) Bool(num Number, v bool) {
	if v {
		e.Uint(num, 1)
	}
}

// Float64 writes a fixed64 field holding the IEEE-754 bits of v.
// The value is always written so that -0 and NaN payloads survive.
func (e *Encoder) Float64(num Number, v float64) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.Fixed64Type)
	e.buf = protowire.AppendFixed64(e.buf, math.Float64bits(v))
}

// String writes a length-delimited string field. Empty strings are omitted.
func (e *Encoder) String(num Number, s string) {
	if s == "" {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendString(e.buf, s)
}

// Raw writes a length-delimited bytes field, even when empty.
func (e *Encoder) Raw(num Number, b []byte) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, b)
}

// Message writes a nested message built by fn.
func (e *Encoder) Message(num Number, fn func(m *Encoder)) {
	sub := Encoder{}
	fn(&sub)
	e.Raw(num, sub.buf)
}

// PackedFloat64 writes a packed repeated double field.
func (e *Encoder) PackedFloat64(num Number, vs []float64) {
	if len(vs) == 0 {
		return
	}
	b := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	e.Raw(num, b)
}

// PackedFloat32 writes a packed repeated float field.
func (e *Encoder) PackedFloat32(num Number, vs []float32) {
	if len(vs) == 0 {
		return
	}
	b := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		b = protowire.AppendFixed32(b, math.Float32bits(v))
	}
	e.Raw(num, b)
}

// Field is a single decoded field value.
type Field struct {
	typ protowire.Type
	v   uint64
	b   []byte
}

// Uint returns the field as an unsigned varint.
func (f Field) Uint() uint64 { return f.v }

// Int returns the field as a zigzag-decoded signed varint.
func (f Field) Int() int64 { return protowire.DecodeZigZag(f.v) }

// Bool returns the field as a boolean.
func (f Field) Bool() bool { return f.v != 0 }

// Float64 returns the field as a double.
func (f Field) Float64() float64 { return math.Float64frombits(f.v) }

// String returns the field as a string.
func (f Field) String() string { return string(f.b) }

// Bytes returns the raw bytes of a length-delimited field.
// The slice aliases the decoded buffer.
func (f Field) Bytes() []byte { return f.b }

// PackedFloat64 decodes a packed repeated double field.
func (f Field) PackedFloat64() ([]float64, error) {
	if len(f.b)%8 != 0 {
		return nil, fmt.Errorf("%w: packed double length %d", ErrMalformed, len(f.b))
	}
	out := make([]float64, 0, len(f.b)/8)
	b := f.b
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, ErrMalformed
		}
		out = append(out, math.Float64frombits(v))
		b = b[n:]
	}
	return out, nil
}

// PackedFloat32 decodes a packed repeated float field.
func (f Field) PackedFloat32() ([]float32, error) {
	if len(f.b)%4 != 0 {
		return nil, fmt.Errorf("%w: packed float length %d", ErrMalformed, len(f.b))
	}
	out := make([]float32, 0, len(f.b)/4)
	b := f.b
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return nil, ErrMalformed
		}
		out = append(out, math.Float32frombits(v))
		b = b[n:]
	}
	return out, nil
}

// Decode walks every field in b and calls fn for it.
// Groups are not supported.
func Decode(b []byte, fn func(num Number, f Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		var f Field
		f.typ = typ
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.v, n = protowire.ConsumeFixed64(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.v = uint64(v)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(num, f); err != nil {
			return err
		}
	}
	return nil
}
