package hepio

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when using a File after Close.
	ErrClosed = errors.New("hepio: file closed")
	// ErrReadOnly is returned when writing to a File opened for reading.
	ErrReadOnly = errors.New("hepio: file is read-only")
	// ErrWriteOnly is returned when reading objects from a File that is still being written.
	ErrWriteOnly = errors.New("hepio: file is open for writing")
	// ErrObjectNotFound is returned when no key matches a name.
	ErrObjectNotFound = errors.New("hepio: object not found")
)

// ErrClassMismatch indicates that a stored object has a different class
// than the value it is read into.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrClassMismatch struct {
	Name string
	Want string
	Got  string
	cause error
}

func (e *ErrClassMismatch) Error() string {
	return fmt.Sprintf("hepio: object %q has class %s, want %s", e.Name, e.Got, e.Want)
}

func (e *ErrClassMismatch) Unwrap() error { return e.cause }
