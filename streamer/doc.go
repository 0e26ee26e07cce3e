// Package streamer is the reflection-driven type dictionary of hepio.
//
// A class is a named Go struct registered in a Registry. Registration
// walks nested structs transitively and derives an Info per class: the
// member names and type names in declaration order plus a CRC32C checksum.
// Files persist the infos of every class they contain so readers can
// detect layout changes.
//
// Exported fields are streamed in declaration order. The struct tag
// `hep:"name"` renames a member and `hep:"-"` skips it:
//
//	type Particle struct {
//	    ID int32         `hep:"id"`
//	    P4 LorentzVector `hep:"p4"`
//	    cache []float64  // unexported: never streamed
//	}
//
// Supported kinds are bool, sized and platform integers, float32/64,
// string, arrays, slices and structs. Maps, pointers, interfaces, channels,
// funcs and complex numbers are rejected with ErrUnsupportedType.
//
// # Encodings
//
// The row codec (AppendValue, DecodeValue) writes fixed-width little-endian
// numerics, so floats round-trip bit-exactly, and uvarint-prefixed strings
// and slices.
//
// Split turns a type into columnar leaves. Split level 0 yields one leaf
// streaming the whole value. Otherwise struct members become leaves down
// to the split depth, and a slice of structs becomes a counter leaf
// ("particles_") plus one element leaf per member ("particles.id").
// Collections inside collections, and structs below the split depth, are
// streamed as a single leaf.
package streamer
