package hist

import (
	"fmt"

	"github.com/hupe1980/hepio/internal/wire"
)

const (
	fieldName     = 1
	fieldTitle    = 2
	fieldNBins    = 3
	fieldXMin     = 4
	fieldXMax     = 5
	fieldContents = 6
	fieldEntries  = 7
	fieldSumW     = 8
	fieldSumW2    = 9
	fieldSumWX    = 10
	fieldSumWX2   = 11
)

// MarshalHEP encodes the histogram.
func (h *H1F) MarshalHEP() ([]byte, error) {
	e := wire.NewEncoder(64 + 4*len(h.contents))
	e.String(fieldName, h.name)
	e.String(fieldTitle, h.title)
	e.Uint(fieldNBins, uint64(h.nbins))
	e.Float64(fieldXMin, h.xmin)
	e.Float64(fieldXMax, h.xmax)
	e.PackedFloat32(fieldContents, h.contents)
	e.Uint(fieldEntries, uint64(h.entries))
	e.Float64(fieldSumW, h.tsumw)
	e.Float64(fieldSumW2, h.tsumw2)
	e.Float64(fieldSumWX, h.tsumwx)
	e.Float64(fieldSumWX2, h.tsumwx2)
	return e.Bytes(), nil
}

// UnmarshalHEP decodes a histogram encoded by MarshalHEP.
func (h *H1F) UnmarshalHEP(b []byte) error {
	var out H1F
	err := wire.Decode(b, func(num wire.Number, f wire.Field) error {
		var err error
		switch num {
		case fieldName:
			out.name = f.String()
		case fieldTitle:
			out.title = f.String()
		case fieldNBins:
			out.nbins = int(f.Uint())
		case fieldXMin:
			out.xmin = f.Float64()
		case fieldXMax:
			out.xmax = f.Float64()
		case fieldContents:
			out.contents, err = f.PackedFloat32()
		case fieldEntries:
			out.entries = int64(f.Uint())
		case fieldSumW:
			out.tsumw = f.Float64()
		case fieldSumW2:
			out.tsumw2 = f.Float64()
		case fieldSumWX:
			out.tsumwx = f.Float64()
		case fieldSumWX2:
			out.tsumwx2 = f.Float64()
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("hist: decode %s: %w", ClassH1F, err)
	}
	if out.nbins <= 0 || !(out.xmax > out.xmin) {
		return fmt.Errorf("hist: decode %s: %w", ClassH1F, ErrInvalidBinning)
	}
	if out.contents == nil {
		out.contents = make([]float32, out.nbins+2)
	}
	if len(out.contents) != out.nbins+2 {
		return fmt.Errorf("hist: decode %s: %d contents for %d bins", ClassH1F, len(out.contents), out.nbins)
	}
	*h = out
	return nil
}
