package tree

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/hepio/internal/wire"
)

// ClassEntryList is the key class of stored entry lists.
const ClassEntryList = "TEntryList"

// EntryList is a set of selected entry numbers of a tree.
type EntryList struct {
	name     string
	title    string
	treeName string
	rb       *roaring64.Bitmap
}

// NewEntryList returns an empty list.
func NewEntryList(name, title string) *EntryList {
	return &EntryList{name: name, title: title, rb: roaring64.New()}
}

func (l *EntryList) Name() string  { return l.name }
func (l *EntryList) Title() string { return l.title }

// TreeName returns the tree the entries refer to, if known.
func (l *EntryList) TreeName() string { return l.treeName }

// SetTreeName records the tree the entries refer to.
func (l *EntryList) SetTreeName(name string) { l.treeName = name }

// Enter adds entry and reports whether it was new.
func (l *EntryList) Enter(entry int64) bool {
	if entry < 0 {
		return false
	}
	return l.rb.CheckedAdd(uint64(entry))
}

// Remove deletes entry and reports whether it was present.
func (l *EntryList) Remove(entry int64) bool {
	if entry < 0 {
		return false
	}
	return l.rb.CheckedRemove(uint64(entry))
}

// Contains reports whether entry is in the list.
func (l *EntryList) Contains(entry int64) bool {
	return entry >= 0 && l.rb.Contains(uint64(entry))
}

// N returns the number of entries in the list.
func (l *EntryList) N() int64 { return int64(l.rb.GetCardinality()) }

// Entries returns the entries in increasing order.
func (l *EntryList) Entries() []int64 {
	out := make([]int64, 0, l.rb.GetCardinality())
	it := l.rb.Iterator()
	for it.HasNext() {
		out = append(out, int64(it.Next()))
	}
	return out
}

// Class implements hepio.Object.
func (l *EntryList) Class() string { return ClassEntryList }

const (
	listName   = 1
	listTitle  = 2
	listTree   = 3
	listBitmap = 4
)

// MarshalHEP encodes the list.
func (l *EntryList) MarshalHEP() ([]byte, error) {
	l.rb.RunOptimize()
	bm, err := l.rb.MarshalBinary()
	if err != nil {
		return nil, err
	}
	e := wire.NewEncoder(32 + len(bm))
	e.String(listName, l.name)
	e.String(listTitle, l.title)
	e.String(listTree, l.treeName)
	e.Raw(listBitmap, bm)
	return e.Bytes(), nil
}

// UnmarshalHEP decodes a list encoded by MarshalHEP.
func (l *EntryList) UnmarshalHEP(b []byte) error {
	out := EntryList{rb: roaring64.New()}
	err := wire.Decode(b, func(num wire.Number, f wire.Field) error {
		switch num {
		case listName:
			out.name = f.String()
		case listTitle:
			out.title = f.String()
		case listTree:
			out.treeName = f.String()
		case listBitmap:
			if err := out.rb.UnmarshalBinary(f.Bytes()); err != nil {
				return fmt.Errorf("entry list bitmap: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	*l = out
	return nil
}

// Select returns the entries of branch for which keep returns true.
func Select[T any](ctx context.Context, t *Tree, branch string, keep func(entry int64, v *T) bool) (*EntryList, error) {
	r := NewReader(t)
	v := NewValue[T](r, branch)
	list := NewEntryList(branch, "selection on "+branch)
	list.SetTreeName(t.Name())
	for r.Next(ctx) {
		if keep(r.CurrentEntry(), v.Get()) {
			list.Enter(r.CurrentEntry())
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
