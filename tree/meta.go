package tree

import (
	"fmt"

	"github.com/hupe1980/hepio"
	"github.com/hupe1980/hepio/internal/wire"
	"github.com/hupe1980/hepio/streamer"
)

const (
	treeName    = 1
	treeTitle   = 2
	treeEntries = 3
	treeBranch  = 4

	branchName       = 1
	branchClass      = 2
	branchSplitLevel = 3
	branchBasketSize = 4
	branchLeaf       = 5

	leafName    = 1
	leafType    = 2
	leafKind    = 3
	leafCounter = 4
	leafBasket  = 5

	basketFirst     = 1
	basketEntries   = 2
	basketOffset    = 3
	basketRawLen    = 4
	basketStoredLen = 5
)

func (t *Tree) encode() []byte {
	e := wire.NewEncoder(256)
	e.String(treeName, t.name)
	e.String(treeTitle, t.title)
	e.Uint(treeEntries, uint64(t.entries))
	for _, b := range t.branches {
		e.Message(treeBranch, func(m *wire.Encoder) {
			m.String(branchName, b.name)
			m.String(branchClass, b.class)
			m.Uint(branchSplitLevel, uint64(b.opts.SplitLevel))
			m.Uint(branchBasketSize, uint64(b.opts.BasketSize))
			for _, l := range b.leaves {
				m.Message(branchLeaf, func(lm *wire.Encoder) {
					lm.String(leafName, l.desc.Name)
					lm.String(leafType, l.desc.Type)
					lm.Uint(leafKind, uint64(l.desc.Kind))
					lm.String(leafCounter, l.desc.Counter)
					for _, bk := range l.baskets {
						lm.Message(leafBasket, func(bm *wire.Encoder) {
							bm.Uint(basketFirst, uint64(bk.first))
							bm.Uint(basketEntries, uint64(bk.entries))
							bm.Uint(basketOffset, uint64(bk.ref.Offset))
							bm.Uint(basketRawLen, uint64(bk.ref.RawLen))
							bm.Uint(basketStoredLen, uint64(bk.ref.StoredLen))
						})
					}
				})
			}
		})
	}
	return e.Bytes()
}

func (t *Tree) decode(b []byte) error {
	err := wire.Decode(b, func(num wire.Number, f wire.Field) error {
		switch num {
		case treeName:
			t.name = f.String()
		case treeTitle:
			t.title = f.String()
		case treeEntries:
			t.entries = int64(f.Uint())
		case treeBranch:
			br, err := decodeBranch(t, f.Bytes())
			if err != nil {
				return err
			}
			if _, ok := t.byName[br.name]; ok {
				return fmt.Errorf("duplicate branch %q", br.name)
			}
			t.branches = append(t.branches, br)
			t.byName[br.name] = br
		}
		return nil
	})
	if err != nil {
		return err
	}
	return t.check()
}

func decodeBranch(t *Tree, b []byte) (*Branch, error) {
	br := &Branch{tree: t}
	err := wire.Decode(b, func(num wire.Number, f wire.Field) error {
		switch num {
		case branchName:
			br.name = f.String()
		case branchClass:
			br.class = f.String()
		case branchSplitLevel:
			br.opts.SplitLevel = int(f.Uint())
		case branchBasketSize:
			br.opts.BasketSize = int(f.Uint())
		case branchLeaf:
			l, err := decodeLeaf(br, f.Bytes())
			if err != nil {
				return err
			}
			br.leaves = append(br.leaves, l)
		}
		return nil
	})
	return br, err
}

func decodeLeaf(br *Branch, b []byte) (*Leaf, error) {
	l := &Leaf{branch: br}
	err := wire.Decode(b, func(num wire.Number, f wire.Field) error {
		switch num {
		case leafName:
			l.desc.Name = f.String()
		case leafType:
			l.desc.Type = f.String()
		case leafKind:
			l.desc.Kind = streamer.LeafKind(f.Uint())
		case leafCounter:
			l.desc.Counter = f.String()
		case leafBasket:
			var bk basketInfo
			var ref hepio.RecordRef
			err := wire.Decode(f.Bytes(), func(num wire.Number, f wire.Field) error {
				switch num {
				case basketFirst:
					bk.first = int64(f.Uint())
				case basketEntries:
					bk.entries = int(f.Uint())
				case basketOffset:
					ref.Offset = int64(f.Uint())
				case basketRawLen:
					ref.RawLen = uint32(f.Uint())
				case basketStoredLen:
					ref.StoredLen = uint32(f.Uint())
				}
				return nil
			})
			if err != nil {
				return err
			}
			bk.ref = ref
			l.baskets = append(l.baskets, bk)
		}
		return nil
	})
	return l, err
}

// check verifies that the baskets of every leaf cover [0, entries) without gaps.
func (t *Tree) check() error {
	for _, b := range t.branches {
		if len(b.leaves) == 0 {
			return fmt.Errorf("%w: branch %q has no leaves", ErrCorruptBasket, b.name)
		}
		for _, l := range b.leaves {
			next := int64(0)
			for _, bk := range l.baskets {
				if bk.first != next || bk.entries <= 0 {
					return fmt.Errorf("%w: leaf %q basket at entry %d, want %d", ErrCorruptBasket, l.desc.Name, bk.first, next)
				}
				next = bk.last()
			}
			if next != t.entries {
				return fmt.Errorf("%w: leaf %q covers %d of %d entries", ErrCorruptBasket, l.desc.Name, next, t.entries)
			}
		}
	}
	return nil
}
