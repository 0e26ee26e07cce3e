// Package hist provides one-dimensional histograms.
//
// H1F keeps float32 bin contents with an underflow bin (0) and an overflow
// bin (nbins+1), plus float64 fill statistics over in-range fills:
//
//	h, err := hist.NewH1F("h", "px distribution", 100, -4, 4)
//	err = h.FillRandom("gaus", 10000, nil)
//	fmt.Println(h.Entries(), h.Mean(), h.StdDev())
//
// FillRandom samples a named function from the funcs registry by inverting
// the cumulative per-bin integral, so it reproduces the function's shape
// at the histogram's binning. Every sample counts as one entry.
//
// H1F implements the object interfaces of the hepio package (class "TH1F")
// and can be stored in a container file.
package hist
