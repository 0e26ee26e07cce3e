// Package tree stores values as columnar trees in a hepio file.
//
// A Tree has branches, one per Go value, and each branch is split into
// leaves (see streamer.Split). Fill appends the current branch values to
// per-leaf buffers; a buffer that reaches the basket size is compressed and
// written as a basket record. Write flushes the remaining baskets and
// stores the tree metadata under the tree name, with a new cycle for every
// call.
//
// Reading goes through SetBranchAddress and GetEntry, or through a Reader
// with typed Values:
//
//	r := tree.NewReader(t)
//	evt := tree.NewValue[event.Event](r, "events")
//	for r.Next(ctx) {
//	    if evt.SetupStatus() != tree.SetupMatch { ... }
//	    use(evt.Get())
//	}
//	if err := r.Err(); err != nil { ... }
//
// Types read from a tree must be registered in the file registry, and
// their layout must equal the layout stored with the file.
package tree
