package tree

import "errors"

var (
	// ErrBranchNotFound is returned when a tree has no branch of the given name.
	ErrBranchNotFound = errors.New("tree: branch not found")
	// ErrEntryOutOfRange is returned for entry numbers outside [0, Entries).
	ErrEntryOutOfRange = errors.New("tree: entry out of range")
	// ErrInvalidBranch is returned when a branch cannot be created.
	ErrInvalidBranch = errors.New("tree: invalid branch")
	// ErrNotTree is returned when a key does not hold a tree.
	ErrNotTree = errors.New("tree: object is not a tree")
	// ErrCorruptBasket is returned when a basket does not decode.
	ErrCorruptBasket = errors.New("tree: corrupt basket")
)
