package hepio

import (
	"fmt"
	"time"

	"github.com/hupe1980/hepio/internal/rio"
)

// Key describes a named object stored in a File.
type Key struct {
	Name   string
	Title  string
	Class  string
	Cycle  int
	Datime time.Time
	// ObjLen is the uncompressed size of the object.
	ObjLen uint32

	offset int64
}

func (k Key) String() string {
	return fmt.Sprintf("%s;%d", k.Name, k.Cycle)
}

func keyFrom(k rio.Key) Key {
	return Key{
		Name:   k.Name,
		Title:  k.Title,
		Class:  k.Class,
		Cycle:  k.Cycle,
		Datime: k.Datime,
		ObjLen: k.ObjLen,
		offset: k.Offset,
	}
}

// RecordRef locates a record written with WriteRecord.
type RecordRef struct {
	Offset    int64
	RawLen    uint32
	StoredLen uint32
}

func refFrom(r rio.Ref) RecordRef {
	return RecordRef{Offset: r.Offset, RawLen: r.RawLen, StoredLen: r.StoredLen}
}

// Object is a value that can be stored under a key.
type Object interface {
	Class() string
	MarshalHEP() ([]byte, error)
}

// Unmarshaler is a value that can be read from a key.
type Unmarshaler interface {
	Class() string
	UnmarshalHEP([]byte) error
}

// Pending is an object attached to a File that must be written before Close.
type Pending interface {
	Name() string
	// Dirty reports whether the object holds data not yet written.
	Dirty() bool
}
