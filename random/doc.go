// Package random provides the seeded random number generator used to fill
// histograms and generate synthetic events.
//
//	rng := random.New(random.DefaultSeed)
//	x := rng.Gaus(0, 1)
//
// An RNG is safe for concurrent use. Sequences are reproducible for a seed.
package random
