package random

import (
	"math"
	"math/rand"
	"sync"
)

// DefaultSeed is the seed of the package-level generator.
const DefaultSeed int64 = 4357

// RNG encapsulates a pseudo-random source and its seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// New creates an RNG with the given seed.
func New(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // physics sampling, not crypto
		seed: seed,
	}
}

var global = New(DefaultSeed)

// Default returns the shared generator seeded with DefaultSeed.
func Default() *RNG { return global }

// Reset restarts the sequence from the initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed)) //nolint:gosec // physics sampling, not crypto
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Rndm returns a uniform number in the open interval (0, 1).
func (r *RNG) Rndm() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rndm()
}

func (r *RNG) rndm() float64 {
	for {
		if u := r.rand.Float64(); u > 0 {
			return u
		}
	}
}

// Uniform returns a uniform number in (lo, hi).
func (r *RNG) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Rndm()
}

// Gaus returns a normally distributed number.
func (r *RNG) Gaus(mean, sigma float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return mean + sigma*r.rand.NormFloat64()
}

// Exp returns an exponentially distributed number with mean tau.
func (r *RNG) Exp(tau float64) float64 {
	return -tau * math.Log(r.Rndm())
}

// BreitWigner returns a Cauchy distributed number with the given mean and
// full width at half maximum.
func (r *RNG) BreitWigner(mean, gamma float64) float64 {
	return mean + 0.5*gamma*math.Tan(math.Pi*(r.Rndm()-0.5))
}

// Integer returns a uniform integer in [0, n).
func (r *RNG) Integer(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with uniform numbers in (0, 1).
func (r *RNG) FillUniform(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rndm()
	}
}
