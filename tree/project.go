package tree

import (
	"context"

	"github.com/hupe1980/hepio/hist"
)

// Project fills h with the values fn extracts from each entry of branch
// and returns the number of fills. A non-nil list restricts the entries.
func Project[T any](ctx context.Context, t *Tree, branch string, h *hist.H1F, list *EntryList, fn func(v *T) []float64) (int64, error) {
	r := NewReader(t)
	if list != nil {
		r.SetEntryList(list)
	}
	v := NewValue[T](r, branch)

	var n int64
	for r.Next(ctx) {
		for _, x := range fn(v.Get()) {
			h.Fill(x)
			n++
		}
	}
	return n, r.Err()
}
