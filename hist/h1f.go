package hist

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/hepio/funcs"
	"github.com/hupe1980/hepio/random"
)

// ClassH1F is the class name under which H1F is stored.
const ClassH1F = "TH1F"

var (
	// ErrInvalidBinning is returned for nbins <= 0 or an empty range.
	ErrInvalidBinning = errors.New("hist: invalid binning")
	// ErrZeroIntegral is returned when a function integrates to zero over the axis.
	ErrZeroIntegral = errors.New("hist: function integral is zero")
	// ErrNegativeIntegral is returned when a function is negative on some bin.
	ErrNegativeIntegral = errors.New("hist: function integral is negative")
	// ErrInvalidCount is returned for a negative number of samples.
	ErrInvalidCount = errors.New("hist: negative sample count")
)

// H1F is a one-dimensional histogram with float32 bin contents.
type H1F struct {
	name  string
	title string
	nbins int
	xmin  float64
	xmax  float64

	contents []float32 // [underflow, bins..., overflow]
	entries  int64

	tsumw   float64
	tsumw2  float64
	tsumwx  float64
	tsumwx2 float64
}

// NewH1F creates a histogram with nbins equal-width bins on [xmin, xmax).
func NewH1F(name, title string, nbins int, xmin, xmax float64) (*H1F, error) {
	if nbins <= 0 || !(xmax > xmin) {
		return nil, fmt.Errorf("%w: %d bins on [%g, %g)", ErrInvalidBinning, nbins, xmin, xmax)
	}
	return &H1F{
		name:     name,
		title:    title,
		nbins:    nbins,
		xmin:     xmin,
		xmax:     xmax,
		contents: make([]float32, nbins+2),
	}, nil
}

func (h *H1F) Name() string   { return h.name }
func (h *H1F) Title() string  { return h.title }
func (h *H1F) Class() string  { return ClassH1F }
func (h *H1F) NBins() int     { return h.nbins }
func (h *H1F) XMin() float64  { return h.xmin }
func (h *H1F) XMax() float64  { return h.xmax }
func (h *H1F) Entries() int64 { return h.entries }

// FindBin returns the bin containing x: 0 for underflow, nbins+1 for overflow.
func (h *H1F) FindBin(x float64) int {
	switch {
	case math.IsNaN(x) || x < h.xmin:
		return 0
	case x >= h.xmax:
		return h.nbins + 1
	}
	bin := 1 + int(float64(h.nbins)*(x-h.xmin)/(h.xmax-h.xmin))
	return min(bin, h.nbins)
}

// Fill adds x with weight 1 and returns its bin.
func (h *H1F) Fill(x float64) int {
	return h.FillW(x, 1)
}

// FillW adds x with weight w and returns its bin. Under- and overflows count
// as entries but not in the statistics.
func (h *H1F) FillW(x, w float64) int {
	bin := h.FindBin(x)
	h.entries++
	h.contents[bin] += float32(w)
	if bin == 0 || bin > h.nbins {
		return bin
	}
	h.tsumw += w
	h.tsumw2 += w * w
	h.tsumwx += w * x
	h.tsumwx2 += w * x * x
	return bin
}

// FillRandom fills n samples drawn from the registered function fname.
// rng may be nil to use random.Default().
func (h *H1F) FillRandom(fname string, n int, rng *random.RNG) error {
	f, err := funcs.Get(fname)
	if err != nil {
		return err
	}
	return h.FillRandomFunc(f, n, rng)
}

// FillRandomFunc fills n samples distributed like f over the histogram axis.
//
// The cumulative integral over the bins is normalized to 1. A uniform draw
// selects the bin by binary search and is linearly mapped inside that bin.
func (h *H1F) FillRandomFunc(f *funcs.Func, n int, rng *random.RNG) error {
	if n < 0 {
		return ErrInvalidCount
	}
	if rng == nil {
		rng = random.Default()
	}

	cumul := make([]float64, h.nbins+1)
	for bin := 1; bin <= h.nbins; bin++ {
		fint := f.Integral(h.BinLowEdge(bin), h.BinLowEdge(bin+1))
		if fint < 0 {
			return fmt.Errorf("%w: %s in bin %d", ErrNegativeIntegral, f.Name, bin)
		}
		cumul[bin] = cumul[bin-1] + fint
	}
	total := cumul[h.nbins]
	if total == 0 {
		return fmt.Errorf("%w: %s on [%g, %g)", ErrZeroIntegral, f.Name, h.xmin, h.xmax)
	}
	for bin := range cumul {
		cumul[bin] /= total
	}

	width := h.BinWidth(1)
	for range n {
		r := rng.Rndm()
		// Largest bin edge index with cumul <= r.
		ibin := sort.Search(len(cumul), func(i int) bool { return cumul[i] > r }) - 1
		ibin = min(max(ibin, 0), h.nbins-1)
		frac := (r - cumul[ibin]) / (cumul[ibin+1] - cumul[ibin])
		h.Fill(h.BinLowEdge(ibin+1) + width*frac)
	}
	return nil
}

// BinContent returns the content of bin i (0 = underflow, nbins+1 = overflow).
func (h *H1F) BinContent(i int) float64 {
	if i < 0 || i >= len(h.contents) {
		return 0
	}
	return float64(h.contents[i])
}

// SetBinContent sets the content of bin i.
func (h *H1F) SetBinContent(i int, v float64) {
	if i >= 0 && i < len(h.contents) {
		h.contents[i] = float32(v)
	}
}

// BinWidth returns the width of every bin.
func (h *H1F) BinWidth(int) float64 {
	return (h.xmax - h.xmin) / float64(h.nbins)
}

// BinLowEdge returns the lower edge of bin i.
func (h *H1F) BinLowEdge(i int) float64 {
	return h.xmin + float64(i-1)*h.BinWidth(i)
}

// BinCenter returns the center of bin i.
func (h *H1F) BinCenter(i int) float64 {
	return h.BinLowEdge(i) + 0.5*h.BinWidth(i)
}

// Integral returns the sum of in-range bin contents.
func (h *H1F) Integral() float64 {
	var sum float64
	for _, c := range h.contents[1 : h.nbins+1] {
		sum += float64(c)
	}
	return sum
}

// Mean returns the weighted mean of in-range fills.
func (h *H1F) Mean() float64 {
	if h.tsumw == 0 {
		return 0
	}
	return h.tsumwx / h.tsumw
}

// StdDev returns the weighted standard deviation of in-range fills.
func (h *H1F) StdDev() float64 {
	if h.tsumw == 0 {
		return 0
	}
	mean := h.Mean()
	return math.Sqrt(max(h.tsumwx2/h.tsumw-mean*mean, 0))
}

// MaximumBin returns the first in-range bin with the largest content.
func (h *H1F) MaximumBin() int {
	best := 1
	for i := 2; i <= h.nbins; i++ {
		if h.contents[i] > h.contents[best] {
			best = i
		}
	}
	return best
}

// Scale multiplies contents and weighted sums by c. Entries are unchanged.
func (h *H1F) Scale(c float64) {
	for i := range h.contents {
		h.contents[i] *= float32(c)
	}
	h.tsumw *= c
	h.tsumw2 *= c * c
	h.tsumwx *= c
	h.tsumwx2 *= c
}

// Reset clears contents, entries and statistics.
func (h *H1F) Reset() {
	clear(h.contents)
	h.entries = 0
	h.tsumw, h.tsumw2, h.tsumwx, h.tsumwx2 = 0, 0, 0, 0
}
