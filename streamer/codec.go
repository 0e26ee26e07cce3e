package streamer

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// maxZeroSizeElems bounds slices whose elements may encode to zero bytes.
const maxZeroSizeElems = 1 << 20

// AppendValue appends the row encoding of v to dst.
//
// Numbers are fixed-width little endian (int and uint use 8 bytes), bools
// one byte, strings and slices a uvarint length followed by the data, and
// arrays and structs their members in order.
func AppendValue(dst []byte, v reflect.Value) []byte {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return append(dst, 1)
		}
		return append(dst, 0)
	case reflect.Int8:
		return append(dst, byte(v.Int()))
	case reflect.Int16:
		return binary.LittleEndian.AppendUint16(dst, uint16(v.Int()))
	case reflect.Int32:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.Int()))
	case reflect.Int, reflect.Int64:
		return binary.LittleEndian.AppendUint64(dst, uint64(v.Int()))
	case reflect.Uint8:
		return append(dst, byte(v.Uint()))
	case reflect.Uint16:
		return binary.LittleEndian.AppendUint16(dst, uint16(v.Uint()))
	case reflect.Uint32:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.Uint()))
	case reflect.Uint, reflect.Uint64:
		return binary.LittleEndian.AppendUint64(dst, v.Uint())
	case reflect.Float32:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.Float()))
	case reflect.String:
		s := v.String()
		dst = binary.AppendUvarint(dst, uint64(len(s)))
		return append(dst, s...)
	case reflect.Slice:
		n := v.Len()
		dst = binary.AppendUvarint(dst, uint64(n))
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return append(dst, v.Bytes()...)
		}
		for i := range n {
			dst = AppendValue(dst, v.Index(i))
		}
		return dst
	case reflect.Array:
		for i := range v.Len() {
			dst = AppendValue(dst, v.Index(i))
		}
		return dst
	case reflect.Struct:
		for _, f := range fieldsOf(v.Type()) {
			dst = AppendValue(dst, v.Field(f.index))
		}
		return dst
	default:
		panic(fmt.Sprintf("streamer: cannot encode %s", v.Type()))
	}
}

// DecodeValue decodes one value from src into v, which must be settable,
// and returns the remaining bytes.
func DecodeValue(src []byte, v reflect.Value) ([]byte, error) {
	need := func(n int) error {
		if len(src) < n {
			return fmt.Errorf("%w: %s needs %d bytes, have %d", ErrMalformed, v.Type(), n, len(src))
		}
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if err := need(1); err != nil {
			return nil, err
		}
		v.SetBool(src[0] != 0)
		return src[1:], nil
	case reflect.Int8:
		if err := need(1); err != nil {
			return nil, err
		}
		v.SetInt(int64(int8(src[0])))
		return src[1:], nil
	case reflect.Int16:
		if err := need(2); err != nil {
			return nil, err
		}
		v.SetInt(int64(int16(binary.LittleEndian.Uint16(src))))
		return src[2:], nil
	case reflect.Int32:
		if err := need(4); err != nil {
			return nil, err
		}
		v.SetInt(int64(int32(binary.LittleEndian.Uint32(src))))
		return src[4:], nil
	case reflect.Int, reflect.Int64:
		if err := need(8); err != nil {
			return nil, err
		}
		v.SetInt(int64(binary.LittleEndian.Uint64(src)))
		return src[8:], nil
	case reflect.Uint8:
		if err := need(1); err != nil {
			return nil, err
		}
		v.SetUint(uint64(src[0]))
		return src[1:], nil
	case reflect.Uint16:
		if err := need(2); err != nil {
			return nil, err
		}
		v.SetUint(uint64(binary.LittleEndian.Uint16(src)))
		return src[2:], nil
	case reflect.Uint32:
		if err := need(4); err != nil {
			return nil, err
		}
		v.SetUint(uint64(binary.LittleEndian.Uint32(src)))
		return src[4:], nil
	case reflect.Uint, reflect.Uint64:
		if err := need(8); err != nil {
			return nil, err
		}
		v.SetUint(binary.LittleEndian.Uint64(src))
		return src[8:], nil
	case reflect.Float32:
		if err := need(4); err != nil {
			return nil, err
		}
		v.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(src))))
		return src[4:], nil
	case reflect.Float64:
		if err := need(8); err != nil {
			return nil, err
		}
		v.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(src)))
		return src[8:], nil
	case reflect.String:
		n, rest, err := readLen(src, 1)
		if err != nil {
			return nil, err
		}
		v.SetString(string(rest[:n]))
		return rest[n:], nil
	case reflect.Slice:
		elem := v.Type().Elem()
		n, rest, err := readLen(src, minSize(elem))
		if err != nil {
			return nil, err
		}
		if n == 0 {
			v.Set(reflect.Zero(v.Type()))
			return rest, nil
		}
		if elem.Kind() == reflect.Uint8 {
			b := make([]byte, n)
			copy(b, rest[:n])
			v.SetBytes(b)
			return rest[n:], nil
		}
		s := reflect.MakeSlice(v.Type(), n, n)
		for i := range n {
			if rest, err = DecodeValue(rest, s.Index(i)); err != nil {
				return nil, err
			}
		}
		v.Set(s)
		return rest, nil
	case reflect.Array:
		var err error
		for i := range v.Len() {
			if src, err = DecodeValue(src, v.Index(i)); err != nil {
				return nil, err
			}
		}
		return src, nil
	case reflect.Struct:
		var err error
		for _, f := range fieldsOf(v.Type()) {
			if src, err = DecodeValue(src, v.Field(f.index)); err != nil {
				return nil, err
			}
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
	}
}

// readLen reads a uvarint element count and checks it against the bytes left.
func readLen(src []byte, elemSize int) (int, []byte, error) {
	n, k := binary.Uvarint(src)
	if k <= 0 {
		return 0, nil, fmt.Errorf("%w: bad length prefix", ErrMalformed)
	}
	rest := src[k:]
	if elemSize > 0 {
		if n > uint64(len(rest)/elemSize) {
			return 0, nil, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrMalformed, n, len(rest))
		}
	} else if n > maxZeroSizeElems {
		return 0, nil, fmt.Errorf("%w: length %d too large", ErrMalformed, n)
	}
	return int(n), rest, nil
}

// minSize is the smallest encoding of a value of type t.
func minSize(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Float64:
		return 8
	case reflect.String, reflect.Slice:
		return 1
	case reflect.Array:
		return t.Len() * minSize(t.Elem())
	case reflect.Struct:
		n := 0
		for _, f := range fieldsOf(t) {
			n += minSize(f.typ)
		}
		return n
	default:
		return 0
	}
}

// Marshal returns the row encoding of v.
func Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedType)
	}
	if err := Validate(rv.Type()); err != nil {
		return nil, err
	}
	return AppendValue(nil, rv), nil
}

// Unmarshal decodes b into the value ptr points to. All of b must be consumed.
func Unmarshal(b []byte, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: Unmarshal needs a non-nil pointer", ErrUnsupportedType)
	}
	rv = rv.Elem()
	if err := Validate(rv.Type()); err != nil {
		return err
	}
	rest, err := DecodeValue(b, rv)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}
	return nil
}
