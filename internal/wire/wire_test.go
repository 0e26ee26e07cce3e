package wire

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	e := NewEncoder(64)
	e.String(1, "tree")
	e.Uint(2, 42)
	e.Int(3, -7)
	e.Float64(4, 4.0)
	e.Bool(5, true)
	e.Message(6, func(m *Encoder) {
		m.String(1, "events")
	})
	e.PackedFloat64(7, []float64{1, 2, 3, 4})
	e.PackedFloat32(8, []float32{0.5, -0.5})

	var (
		name   string
		u      uint64
		i      int64
		f      float64
		b      bool
		nested string
		p64    []float64
		p32    []float32
	)
	err := Decode(e.Bytes(), func(num Number, fld Field) error {
		var err error
		switch num {
		case 1:
			name = fld.String()
		case 2:
			u = fld.Uint()
		case 3:
			i = fld.Int()
		case 4:
			f = fld.Float64()
		case 5:
			b = fld.Bool()
		case 6:
			err = Decode(fld.Bytes(), func(num Number, fld Field) error {
				if num == 1 {
					nested = fld.String()
				}
				return nil
			})
		case 7:
			p64, err = fld.PackedFloat64()
		case 8:
			p32, err = fld.PackedFloat32()
		}
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "tree", name)
	assert.Equal(t, uint64(42), u)
	assert.Equal(t, int64(-7), i)
	assert.Equal(t, 4.0, f)
	assert.True(t, b)
	assert.Equal(t, "events", nested)
	assert.Equal(t, []float64{1, 2, 3, 4}, p64)
	assert.Equal(t, []float32{0.5, -0.5}, p32)
}

func TestFloat64_BitExact(t *testing.T) {
	values := []float64{math.Copysign(0, -1), math.SmallestNonzeroFloat64, math.MaxFloat64, math.Inf(-1)}
	for _, v := range values {
		e := NewEncoder(16)
		e.Float64(1, v)
		var got float64
		require.NoError(t, Decode(e.Bytes(), func(_ Number, f Field) error {
			got = f.Float64()
			return nil
		}))
		assert.Equal(t, math.Float64bits(v), math.Float64bits(got))
	}
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	e := NewEncoder(16)
	e.Uint(99, 1)
	e.String(1, "kept")

	var seen []Number
	require.NoError(t, Decode(e.Bytes(), func(num Number, _ Field) error {
		seen = append(seen, num)
		return nil
	}))
	assert.Equal(t, []Number{99, 1}, seen)
}

func TestDecode_Malformed(t *testing.T) {
	e := NewEncoder(16)
	e.String(1, "truncated")
	b := e.Bytes()

	err := Decode(b[:len(b)-3], func(Number, Field) error { return nil })
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDecode_CallbackError(t *testing.T) {
	e := NewEncoder(8)
	e.Uint(1, 1)
	stop := errors.New("stop")
	err := Decode(e.Bytes(), func(Number, Field) error { return stop })
	assert.Equal(t, stop, err)
}
