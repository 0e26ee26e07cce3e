package tree

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/hupe1980/hepio"
	"github.com/hupe1980/hepio/streamer"
)

// ClassTree is the key class of stored trees.
const ClassTree = "TTree"

// Tree is a columnar table of entries. Each branch holds one Go value per
// entry, split into leaves that are buffered and written in baskets.
//
// A Tree is safe for concurrent use, but entries are filled and read
// through shared branch addresses, so callers typically use it from one
// goroutine.
type Tree struct {
	mu sync.Mutex

	f     *hepio.File
	name  string
	title string
	log   *hepio.Logger

	entries  int64
	branches []*Branch
	byName   map[string]*Branch
	dirty    bool
}

// New creates an empty tree in f. The tree is stored by Write; a tree
// still holding unwritten entries when f is closed is discarded.
func New(f *hepio.File, name, title string) *Tree {
	t := &Tree{
		f:      f,
		name:   name,
		title:  title,
		log:    f.Logger().WithTree(name),
		byName: make(map[string]*Branch),
	}
	f.Attach(t)
	return t
}

// Name returns the tree name.
func (t *Tree) Name() string { return t.name }

// Title returns the tree title.
func (t *Tree) Title() string { return t.title }

// File returns the file holding the tree.
func (t *Tree) File() *hepio.File { return t.f }

// Entries returns the number of entries.
func (t *Tree) Entries() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries
}

// Dirty reports whether entries were filled since the last Write.
func (t *Tree) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

// Branch adds a branch reading its value from ptr on every Fill.
// Struct types are registered in the file registry and their layouts are
// stored with the file.
func (t *Tree) Branch(name string, ptr any, optFns ...func(o *Options)) (*Branch, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BasketSize <= 0 {
		return nil, fmt.Errorf("%w: basket size %d", ErrInvalidBranch, opts.BasketSize)
	}

	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("%w: %q needs a non-nil pointer, got %T", ErrInvalidBranch, name, ptr)
	}
	typ := rv.Type().Elem()
	if err := streamer.Validate(typ); err != nil {
		return nil, fmt.Errorf("tree: branch %q: %w", name, err)
	}
	if !t.f.Writable() {
		return nil, hepio.ErrReadOnly
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byName[name]; ok {
		return nil, fmt.Errorf("%w: duplicate branch %q", ErrInvalidBranch, name)
	}
	if t.entries > 0 {
		return nil, fmt.Errorf("%w: %q added after %d entries were filled", ErrInvalidBranch, name, t.entries)
	}

	if typ.Kind() == reflect.Struct {
		c, err := t.f.Registry().Register(typ)
		if err != nil {
			return nil, fmt.Errorf("tree: branch %q: %w", name, err)
		}
		if err := t.f.AddStreamerInfos(c.Closure()); err != nil {
			return nil, err
		}
	}

	b := &Branch{
		tree:  t,
		name:  name,
		class: streamer.TypeName(typ),
		opts:  opts,
		value: rv.Elem(),
	}
	for _, desc := range streamer.Split(typ, opts.SplitLevel) {
		b.leaves = append(b.leaves, &Leaf{branch: b, desc: desc})
	}
	t.branches = append(t.branches, b)
	t.byName[name] = b
	return b, nil
}

// Fill appends one entry with the current values of all branches and
// returns the number of bytes buffered. Full baskets are written.
func (t *Tree) Fill(ctx context.Context) (int, error) {
	start := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.branches) == 0 {
		return 0, fmt.Errorf("%w: tree %q has no branches", ErrInvalidBranch, t.name)
	}

	n := 0
	for _, b := range t.branches {
		for _, l := range b.leaves {
			n += l.append(b.value)
		}
	}
	t.entries++
	t.dirty = true

	var full []*Leaf
	for _, b := range t.branches {
		for _, l := range b.leaves {
			if len(l.buf) >= b.opts.BasketSize {
				full = append(full, l)
			}
		}
	}
	if err := t.flush(ctx, full); err != nil {
		return n, err
	}
	t.f.Metrics().RecordFill(n, time.Since(start))
	return n, nil
}

// flush writes the open baskets of leaves.
func (t *Tree) flush(ctx context.Context, leaves []*Leaf) error {
	if len(leaves) == 0 {
		return nil
	}
	payloads := make([][]byte, len(leaves))
	for i, l := range leaves {
		payloads[i] = encodeBasket(l.buf, l.offsets)
	}
	refs, err := t.f.WriteRecords(ctx, payloads)
	if err != nil {
		return fmt.Errorf("tree %q: write baskets: %w", t.name, err)
	}
	for i, l := range leaves {
		entries := len(l.offsets)
		l.baskets = append(l.baskets, basketInfo{first: l.first, entries: entries, ref: refs[i]})
		t.log.LogBasketFlush(ctx, l.desc.Name, entries, len(payloads[i]))
		l.first += int64(entries)
		l.buf = l.buf[:0]
		l.offsets = l.offsets[:0]
	}
	return nil
}

// Write flushes all baskets and stores the tree under its name. Writing
// again after more fills stores a new cycle holding every entry.
func (t *Tree) Write(ctx context.Context) (hepio.Key, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var open []*Leaf
	for _, b := range t.branches {
		for _, l := range b.leaves {
			if len(l.offsets) > 0 {
				open = append(open, l)
			}
		}
	}
	if err := t.flush(ctx, open); err != nil {
		t.log.LogTreeWrite(ctx, t.entries, 0, err)
		return hepio.Key{}, err
	}

	k, err := t.f.PutRaw(ctx, t.name, t.title, ClassTree, t.encode())
	if err != nil {
		t.log.LogTreeWrite(ctx, t.entries, 0, err)
		return hepio.Key{}, err
	}
	t.dirty = false

	baskets := 0
	for _, b := range t.branches {
		for _, l := range b.leaves {
			baskets += len(l.baskets)
		}
	}
	t.log.LogTreeWrite(ctx, t.entries, baskets, nil)
	return k, nil
}

// Open reads the tree stored under namecycle.
func Open(ctx context.Context, f *hepio.File, namecycle string) (*Tree, error) {
	k, err := f.Key(namecycle)
	if err != nil {
		return nil, err
	}
	if k.Class != ClassTree {
		return nil, fmt.Errorf("%w: %s has class %s", ErrNotTree, namecycle, k.Class)
	}
	payload, err := f.GetRaw(ctx, k)
	if err != nil {
		return nil, err
	}
	t := &Tree{
		f:      f,
		log:    f.Logger().WithTree(k.Name),
		byName: make(map[string]*Branch),
	}
	if err := t.decode(payload); err != nil {
		return nil, fmt.Errorf("tree: %s: %w", namecycle, err)
	}
	return t, nil
}

// GetBranch returns the branch called name.
func (t *Tree) GetBranch(name string) (*Branch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in tree %q", ErrBranchNotFound, name, t.name)
	}
	return b, nil
}

// Branches returns the branches in creation order.
func (t *Tree) Branches() []*Branch {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Branch, len(t.branches))
	copy(out, t.branches)
	return out
}

// Leaves returns the leaves of all branches.
func (t *Tree) Leaves() []*Leaf {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*Leaf
	for _, b := range t.branches {
		out = append(out, b.leaves...)
	}
	return out
}

// SetBranchAddress makes GetEntry decode branch name into the value ptr
// points to. The Go type must match the stored class: struct types must be
// registered (streamer.ErrMissingDictionary) and their layout must equal
// the layout stored in the file (streamer.ErrTypeMismatch).
func (t *Tree) SetBranchAddress(name string, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: %q needs a non-nil pointer, got %T", ErrInvalidBranch, name, ptr)
	}
	b, err := t.GetBranch(name)
	if err != nil {
		return err
	}
	leaves, err := b.bind(rv.Type().Elem())
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	b.bound = leaves
	b.addr = rv.Elem()
	return nil
}

// GetEntry reads entry i into every branch with an address and returns
// the number of bytes decoded.
func (t *Tree) GetEntry(ctx context.Context, i int64) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= t.entries {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrEntryOutOfRange, i, t.entries)
	}

	n := 0
	for _, b := range t.branches {
		if !b.addr.IsValid() {
			continue
		}
		m, err := b.readEntry(ctx, i, b.bound, b.addr)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (t *Tree) readEntry(ctx context.Context, b *Branch, i int64, leaves []streamer.Leaf, root reflect.Value) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= t.entries {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrEntryOutOfRange, i, t.entries)
	}
	return b.readEntry(ctx, i, leaves, root)
}
