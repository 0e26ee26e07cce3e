// Package rio implements the hepio container file format.
//
// # File Format
//
//	┌──────────────────────────────────────────────┐
//	│ Header (64 bytes)                            │
//	│   magic, version, UUID, compression,         │
//	│   creation time, CRC32C                      │
//	├──────────────────────────────────────────────┤
//	│ Record 0: header (24 bytes) + payload        │
//	│ Record 1: header (24 bytes) + payload        │
//	│ ...                                          │
//	├──────────────────────────────────────────────┤
//	│ Directory record (keys, protowire)           │
//	├──────────────────────────────────────────────┤
//	│ Footer (32 bytes)                            │
//	│   directory offset, key count, magic, CRC32C │
//	└──────────────────────────────────────────────┘
//
// Records are appended in write order and addressed by file offset.
// Named objects (trees, histograms, streamer infos) are reachable through
// keys in the directory; anonymous records such as tree baskets are
// referenced from inside those objects.
//
// The writer never seeks, so a file can be streamed to any io.Writer,
// including object-store uploads. The reader only needs random access
// through a context-aware ReaderAt.
//
// # Integrity
//
// The header, every record header, every record payload and the footer
// carry a CRC32C. Any mismatch, truncation or bad magic is reported as an
// error wrapping ErrCorrupt.
package rio
