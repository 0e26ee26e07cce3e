package tree

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/hupe1980/hepio/streamer"
)

// Branch is a named column group of a tree holding values of one Go type.
type Branch struct {
	tree  *Tree
	name  string
	class string
	opts  Options

	leaves []*Leaf

	value reflect.Value // write side: the value behind the Branch pointer
	addr  reflect.Value // read side: set by SetBranchAddress
	bound []streamer.Leaf
}

// Name returns the branch name.
func (b *Branch) Name() string { return b.name }

// Class returns the type name of the branch value.
func (b *Branch) Class() string { return b.class }

// SplitLevel returns the split level the branch was written with.
func (b *Branch) SplitLevel() int { return b.opts.SplitLevel }

// BasketSize returns the basket size the branch was written with.
func (b *Branch) BasketSize() int { return b.opts.BasketSize }

// Leaves returns the leaves of the branch in order.
func (b *Branch) Leaves() []*Leaf {
	out := make([]*Leaf, len(b.leaves))
	copy(out, b.leaves)
	return out
}

// TotBytes returns the uncompressed size of all written baskets.
func (b *Branch) TotBytes() int64 {
	var n int64
	for _, l := range b.leaves {
		for _, bk := range l.baskets {
			n += int64(bk.ref.RawLen)
		}
	}
	return n
}

// ZipBytes returns the stored size of all written baskets.
func (b *Branch) ZipBytes() int64 {
	var n int64
	for _, l := range b.leaves {
		for _, bk := range l.baskets {
			n += int64(bk.ref.StoredLen)
		}
	}
	return n
}

// bind checks that t matches what the branch stores and returns the
// leaves to decode values of type t.
func (b *Branch) bind(t reflect.Type) ([]streamer.Leaf, error) {
	if name := streamer.TypeName(t); name != b.class {
		return nil, fmt.Errorf("%w: branch %q holds %s, not %s", streamer.ErrTypeMismatch, b.name, b.class, name)
	}
	if err := streamer.Validate(t); err != nil {
		return nil, err
	}
	if t.Kind() == reflect.Struct {
		f := b.tree.f
		c, err := f.Registry().Require(t)
		if err != nil {
			return nil, err
		}
		if err := c.Verify(f.StreamerInfos()); err != nil {
			return nil, err
		}
	}

	leaves := streamer.Split(t, b.opts.SplitLevel)
	stored := make([]streamer.Leaf, len(b.leaves))
	for i, l := range b.leaves {
		stored[i] = l.desc
	}
	if !streamer.SameLayout(leaves, stored) {
		return nil, fmt.Errorf("%w: branch %q leaf layout differs", streamer.ErrTypeMismatch, b.name)
	}
	return leaves, nil
}

// readEntry decodes entry i into root using leaves from bind.
func (b *Branch) readEntry(ctx context.Context, i int64, leaves []streamer.Leaf, root reflect.Value) (int, error) {
	n := 0
	for k, l := range b.leaves {
		data, err := l.entry(ctx, i)
		if err != nil {
			return n, err
		}
		if err := leaves[k].Decode(data, root); err != nil {
			return n, fmt.Errorf("tree: branch %q entry %d: %w", b.name, i, err)
		}
		n += len(data)
	}
	return n, nil
}

// Leaf is one column of a branch.
type Leaf struct {
	branch *Branch
	desc   streamer.Leaf

	// write buffer of the open basket
	buf     []byte
	offsets []uint32
	first   int64

	baskets []basketInfo
	cur     *basket
}

// Name returns the leaf name, e.g. "particles.id".
func (l *Leaf) Name() string { return l.desc.Name }

// TypeName returns the stream type name of the leaf values.
func (l *Leaf) TypeName() string { return l.desc.Type }

// Kind returns how the leaf maps onto the branch value.
func (l *Leaf) Kind() streamer.LeafKind { return l.desc.Kind }

// Counter returns the name of the counter leaf of an element leaf.
func (l *Leaf) Counter() string { return l.desc.Counter }

// Branch returns the owning branch.
func (l *Leaf) Branch() *Branch { return l.branch }

// Baskets returns the number of written baskets.
func (l *Leaf) Baskets() int { return len(l.baskets) }

func (l *Leaf) append(root reflect.Value) int {
	start := len(l.buf)
	l.offsets = append(l.offsets, uint32(start))
	l.buf = l.desc.Append(l.buf, root)
	return len(l.buf) - start
}

// entry returns the encoded bytes of entry i, loading its basket if needed.
func (l *Leaf) entry(ctx context.Context, i int64) ([]byte, error) {
	if l.cur != nil && l.cur.contains(i) {
		return l.cur.entry(i), nil
	}
	k := sort.Search(len(l.baskets), func(k int) bool { return l.baskets[k].last() > i })
	if k == len(l.baskets) || l.baskets[k].first > i {
		return nil, fmt.Errorf("%w: leaf %q has no basket for entry %d", ErrCorruptBasket, l.desc.Name, i)
	}
	info := l.baskets[k]
	raw, err := l.branch.tree.f.ReadRecord(ctx, info.ref)
	if err != nil {
		return nil, fmt.Errorf("tree: leaf %q: %w", l.desc.Name, err)
	}
	bk, err := decodeBasket(raw, info.first)
	if err != nil {
		return nil, fmt.Errorf("leaf %q: %w", l.desc.Name, err)
	}
	if len(bk.offsets)-1 != info.entries {
		return nil, fmt.Errorf("%w: leaf %q basket has %d entries, want %d", ErrCorruptBasket, l.desc.Name, len(bk.offsets)-1, info.entries)
	}
	l.cur = bk
	return bk.entry(i), nil
}
