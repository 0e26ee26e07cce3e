package random

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Reproducible(t *testing.T) {
	a := New(42)
	b := New(42)
	for range 100 {
		require.Equal(t, a.Rndm(), b.Rndm())
	}

	first := New(7).Rndm()
	r := New(7)
	_ = r.Rndm()
	r.Reset()
	assert.Equal(t, first, r.Rndm())
	assert.Equal(t, int64(7), r.Seed())
}

func TestRNG_Ranges(t *testing.T) {
	r := New(DefaultSeed)
	for range 1000 {
		u := r.Rndm()
		assert.True(t, u > 0 && u < 1)

		x := r.Uniform(-2, 3)
		assert.True(t, x > -2 && x < 3)

		assert.Positive(t, r.Exp(2))

		n := r.Integer(10)
		assert.True(t, n >= 0 && n < 10)
	}
}

func TestRNG_Moments(t *testing.T) {
	r := New(DefaultSeed)
	const n = 20000

	var sum, sum2 float64
	for range n {
		x := r.Gaus(5, 2)
		sum += x
		sum2 += x * x
	}
	mean := sum / n
	sigma := math.Sqrt(sum2/n - mean*mean)
	assert.InDelta(t, 5, mean, 0.1)
	assert.InDelta(t, 2, sigma, 0.1)

	sum = 0
	for range n {
		sum += r.Exp(3)
	}
	assert.InDelta(t, 3, sum/n, 0.15)

	// Median of a Breit-Wigner is its mean.
	below := 0
	for range n {
		if r.BreitWigner(1, 0.5) < 1 {
			below++
		}
	}
	assert.InDelta(t, 0.5, float64(below)/n, 0.02)
}

func TestRNG_FillUniform(t *testing.T) {
	dst := make([]float64, 64)
	New(1).FillUniform(dst)
	for _, v := range dst {
		assert.True(t, v > 0 && v < 1)
	}
}

func TestRNG_Concurrent(t *testing.T) {
	r := Default()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = r.Rndm()
				_ = r.Gaus(0, 1)
			}
		}()
	}
	wg.Wait()
}
