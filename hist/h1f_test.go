package hist

import (
	"math"
	"testing"

	"github.com/hupe1980/hepio/funcs"
	"github.com/hupe1980/hepio/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewH1F_InvalidBinning(t *testing.T) {
	_, err := NewH1F("h", "", 0, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidBinning)
	_, err = NewH1F("h", "", 10, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidBinning)
	_, err = NewH1F("h", "", 10, 0, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidBinning)
}

func TestH1F_Fill(t *testing.T) {
	h, err := NewH1F("h", "title", 4, 0, 4)
	require.NoError(t, err)

	assert.Equal(t, 1, h.Fill(0))
	assert.Equal(t, 2, h.Fill(1.5))
	assert.Equal(t, 4, h.Fill(3.999))
	assert.Equal(t, 0, h.Fill(-0.1))
	assert.Equal(t, 5, h.Fill(4))
	assert.Equal(t, 0, h.Fill(math.NaN()))

	assert.Equal(t, int64(6), h.Entries())
	assert.Equal(t, 3.0, h.Integral())
	assert.Equal(t, 2.0, h.BinContent(0))
	assert.Equal(t, 1.0, h.BinContent(5))
	assert.Equal(t, 0.0, h.BinContent(99))
	assert.InDelta(t, (0+1.5+3.999)/3, h.Mean(), 1e-12)

	assert.Equal(t, 0.5, h.BinCenter(1))
	assert.Equal(t, 2.0, h.BinLowEdge(3))
	assert.Equal(t, 1.0, h.BinWidth(1))
}

func TestH1F_Stats(t *testing.T) {
	h, err := NewH1F("h", "", 10, 0, 10)
	require.NoError(t, err)
	h.FillW(2, 1)
	h.FillW(4, 3)

	assert.InDelta(t, 3.5, h.Mean(), 1e-12)
	assert.InDelta(t, math.Sqrt(0.75), h.StdDev(), 1e-12)
	assert.Equal(t, 5, h.MaximumBin())

	h.Scale(2)
	assert.Equal(t, 8.0, h.Integral())
	assert.InDelta(t, 3.5, h.Mean(), 1e-12)
	assert.Equal(t, int64(2), h.Entries())

	h.Reset()
	assert.Zero(t, h.Entries())
	assert.Zero(t, h.Integral())
	assert.Zero(t, h.Mean())
	assert.Zero(t, h.StdDev())
}

func TestH1F_FillRandomEntries(t *testing.T) {
	for _, fname := range []string{"gaus", "gausn", "expo", "pol0", "pol1", "breitwigner", "uniform"} {
		for _, n := range []int{0, 1, 17, 1000} {
			h, err := NewH1F("h", "", 100, -4, 4)
			require.NoError(t, err)
			require.NoError(t, h.FillRandom(fname, n, random.New(random.DefaultSeed)))
			assert.Equal(t, int64(n), h.Entries(), "%s n=%d", fname, n)
		}
	}
}

func TestH1F_FillRandomShape(t *testing.T) {
	h, err := NewH1F("h", "", 100, -4, 4)
	require.NoError(t, err)
	require.NoError(t, h.FillRandom("gaus", 50000, random.New(1)))

	assert.InDelta(t, 0, h.Mean(), 0.03)
	assert.InDelta(t, 1, h.StdDev(), 0.03)
	center := h.MaximumBin()
	assert.InDelta(t, 0, h.BinCenter(center), 0.5)
}

func TestH1F_FillRandomErrors(t *testing.T) {
	h, err := NewH1F("h", "", 10, 0, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, h.FillRandom("nope", 10, nil), funcs.ErrUnknownFunction)
	assert.ErrorIs(t, h.FillRandom("gaus", -1, nil), ErrInvalidCount)

	zero := &funcs.Func{Name: "zero", Eval: func(float64, []float64) float64 { return 0 }}
	assert.ErrorIs(t, h.FillRandomFunc(zero, 10, nil), ErrZeroIntegral)

	neg := &funcs.Func{Name: "neg", Eval: func(float64, []float64) float64 { return -1 }}
	assert.ErrorIs(t, h.FillRandomFunc(neg, 10, nil), ErrNegativeIntegral)
	assert.Zero(t, h.Entries())
}

func TestH1F_Codec(t *testing.T) {
	h, err := NewH1F("hpx", "px distribution", 50, -4, 4)
	require.NoError(t, err)
	require.NoError(t, h.FillRandom("gaus", 500, random.New(3)))
	h.Fill(100)

	b, err := h.MarshalHEP()
	require.NoError(t, err)

	var got H1F
	require.NoError(t, got.UnmarshalHEP(b))
	assert.Equal(t, h, &got)
	assert.Equal(t, ClassH1F, got.Class())

	assert.Error(t, got.UnmarshalHEP([]byte{0xff}))
}
