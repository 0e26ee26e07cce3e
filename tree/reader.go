package tree

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/hupe1980/hepio/streamer"
)

// SetupStatus reports whether a Value could be bound to its branch.
type SetupStatus int

const (
	// SetupMatch means the branch type matches the value type.
	SetupMatch SetupStatus = 0
	// SetupNotSetup means the value was not set up yet.
	SetupNotSetup SetupStatus = -1
	// SetupMismatch means the stored class or layout differs from the value type.
	SetupMismatch SetupStatus = -2
	// SetupMissingDictionary means the value type is not registered.
	SetupMissingDictionary SetupStatus = -3
	// SetupInternalError means setup failed for another reason.
	SetupInternalError SetupStatus = -4
	// SetupMissingBranch means the tree has no such branch.
	SetupMissingBranch SetupStatus = -5
)

func (s SetupStatus) String() string {
	switch s {
	case SetupMatch:
		return "match"
	case SetupNotSetup:
		return "not set up"
	case SetupMismatch:
		return "mismatch"
	case SetupMissingDictionary:
		return "missing dictionary"
	case SetupInternalError:
		return "internal error"
	case SetupMissingBranch:
		return "missing branch"
	default:
		return fmt.Sprintf("SetupStatus(%d)", int(s))
	}
}

func statusOf(err error) SetupStatus {
	switch {
	case err == nil:
		return SetupMatch
	case errors.Is(err, ErrBranchNotFound):
		return SetupMissingBranch
	case errors.Is(err, streamer.ErrMissingDictionary):
		return SetupMissingDictionary
	case errors.Is(err, streamer.ErrTypeMismatch):
		return SetupMismatch
	default:
		return SetupInternalError
	}
}

type binding interface {
	setup(t *Tree) error
	read(ctx context.Context, t *Tree, entry int64) error
}

// Reader iterates the entries of a tree, filling every Value created on it.
// Values are bound lazily on the first call to Next.
type Reader struct {
	t      *Tree
	values []binding

	begin, end int64
	list       *EntryList

	ready   bool
	entries []int64 // from list, restricted to [begin, end)
	pos     int
	current int64
	err     error
}

// NewReader returns a Reader over all entries of t.
func NewReader(t *Tree) *Reader {
	return &Reader{t: t, end: -1, current: -1}
}

// SetEntriesRange restricts iteration to [begin, end). An end < 0 means
// the last entry. Iteration restarts.
func (r *Reader) SetEntriesRange(begin, end int64) error {
	n := r.t.Entries()
	if end < 0 || end > n {
		end = n
	}
	if begin < 0 || begin > end {
		return fmt.Errorf("%w: range [%d, %d) of %d entries", ErrEntryOutOfRange, begin, end, n)
	}
	r.begin, r.end = begin, end
	r.restart()
	return nil
}

// SetEntryList restricts iteration to the entries in l. Nil clears it.
// Iteration restarts.
func (r *Reader) SetEntryList(l *EntryList) {
	r.list = l
	r.restart()
}

// Restart rewinds the reader to the start of its range.
func (r *Reader) Restart() { r.restart() }

func (r *Reader) restart() {
	r.entries = nil
	r.pos = 0
	r.current = -1
	r.err = nil
	if r.ready {
		r.prepareEntries()
	}
}

// CurrentEntry returns the entry loaded by the last Next, or -1.
func (r *Reader) CurrentEntry() int64 { return r.current }

// Err returns the error that stopped iteration, if any.
func (r *Reader) Err() error { return r.err }

// Tree returns the tree being read.
func (r *Reader) Tree() *Tree { return r.t }

func (r *Reader) prepareEntries() {
	end := r.end
	if end < 0 {
		end = r.t.Entries()
	}
	r.end = end
	if r.list == nil {
		r.entries = nil
		return
	}
	r.entries = r.list.Entries()
	lo := 0
	for lo < len(r.entries) && r.entries[lo] < r.begin {
		lo++
	}
	hi := lo
	for hi < len(r.entries) && r.entries[hi] < end {
		hi++
	}
	r.entries = r.entries[lo:hi]
}

// Next loads the next entry into every Value. It returns false at the end
// of the range or on error; see Err.
func (r *Reader) Next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}
	if !r.ready {
		for _, v := range r.values {
			if err := v.setup(r.t); err != nil {
				r.err = err
				return false
			}
		}
		r.ready = true
		r.prepareEntries()
	}

	var entry int64
	if r.list != nil {
		if r.pos >= len(r.entries) {
			return false
		}
		entry = r.entries[r.pos]
	} else {
		entry = r.begin + int64(r.pos)
		if entry >= r.end {
			return false
		}
	}

	for _, v := range r.values {
		if err := v.read(ctx, r.t, entry); err != nil {
			r.err = err
			return false
		}
	}
	r.pos++
	r.current = entry
	return true
}

// Value is a typed view of one branch, updated by Reader.Next.
type Value[T any] struct {
	branch string
	v      T
	status SetupStatus

	b      *Branch
	leaves []streamer.Leaf
	root   reflect.Value
}

// NewValue binds a value of type T to branch. The binding is checked on
// the first Reader.Next; check SetupStatus before trusting Get.
func NewValue[T any](r *Reader, branch string) *Value[T] {
	v := &Value[T]{branch: branch, status: SetupNotSetup}
	r.values = append(r.values, v)
	return v
}

// Get returns the value of the current entry.
func (v *Value[T]) Get() *T { return &v.v }

// SetupStatus returns the result of binding the value to its branch.
func (v *Value[T]) SetupStatus() SetupStatus { return v.status }

// BranchName returns the branch the value reads.
func (v *Value[T]) BranchName() string { return v.branch }

func (v *Value[T]) setup(t *Tree) error {
	b, err := t.GetBranch(v.branch)
	if err == nil {
		v.leaves, err = b.bind(reflect.TypeFor[T]())
	}
	v.status = statusOf(err)
	if err != nil {
		return fmt.Errorf("tree: setup of %q (%s): %w", v.branch, v.status, err)
	}
	v.b = b
	v.root = reflect.ValueOf(&v.v).Elem()
	return nil
}

func (v *Value[T]) read(ctx context.Context, t *Tree, entry int64) error {
	_, err := t.readEntry(ctx, v.b, entry, v.leaves, v.root)
	return err
}
