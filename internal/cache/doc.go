// Package cache provides LRU caching for immutable blob blocks.
//
// Blob stores read container files in fixed-size blocks; a [BlockCache]
// keeps recently read blocks in memory, keyed by blob path and block index.
//
//   - [LRUBlockCache]: single mutex, size-bounded, optional memory accounting
//     through a resource.Controller
//   - [ShardedLRUBlockCache]: hash-sharded LRU for concurrent readers
//
// Entries of a path are dropped with Invalidate(InvalidatePath(path)) when
// the blob is rewritten or deleted.
package cache
