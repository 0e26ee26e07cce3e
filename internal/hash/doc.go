// Package hash provides the checksums used by the container format.
//
// Every header, record payload and directory in a hepio file is protected
// by CRC32-Castagnoli (CRC32C). Go's hash/crc32 uses SSE4.2 or the ARM CRC
// extension when available.
//
//	sum := hash.CRC32C(payload)
//	if !hash.Verify(payload, sum) {
//	    // corrupt
//	}
//
// Streaming use:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	sum := h.Sum32()
package hash
