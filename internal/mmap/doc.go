// Package mmap provides read-only memory-mapped file access.
//
// Local container files are mapped instead of read through buffered I/O:
// tree readers jump between baskets of different leaves, and a mapping turns
// every basket read into a copy out of the page cache.
//
//	m, err := mmap.Open("testevents.root")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessRandom)
//	n, err := m.ReadAt(buf, off)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) access hints
//   - Windows: CreateFileMapping/MapViewOfFile (Advise is a no-op)
//
// # Thread Safety
//
// A Mapping is safe for concurrent reads. Close is idempotent; callers must
// not use slices returned by Bytes after Close.
package mmap
