package tree

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/hepio"
)

// basketInfo locates a written basket.
type basketInfo struct {
	first   int64
	entries int
	ref     hepio.RecordRef
}

func (b basketInfo) last() int64 { return b.first + int64(b.entries) }

// encodeBasket lays out entries as: count, count+1 offsets into data, data.
func encodeBasket(data []byte, offsets []uint32) []byte {
	n := len(offsets)
	out := make([]byte, 0, 4*(n+2)+len(data))
	out = binary.LittleEndian.AppendUint32(out, uint32(n))
	for _, off := range offsets {
		out = binary.LittleEndian.AppendUint32(out, off)
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	return append(out, data...)
}

// basket is a decoded basket.
type basket struct {
	first   int64
	offsets []uint32
	data    []byte
}

func decodeBasket(b []byte, first int64) (*basket, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptBasket, len(b))
	}
	n := int(binary.LittleEndian.Uint32(b))
	b = b[4:]
	if n >= len(b)/4 {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrCorruptBasket, n, len(b))
	}
	offsets := make([]uint32, n+1)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	data := b[4*(n+1):]
	prev := uint32(0)
	for _, off := range offsets {
		if off < prev {
			return nil, fmt.Errorf("%w: offsets not increasing", ErrCorruptBasket)
		}
		prev = off
	}
	if int(offsets[n]) != len(data) {
		return nil, fmt.Errorf("%w: data is %d bytes, offsets end at %d", ErrCorruptBasket, len(data), offsets[n])
	}
	return &basket{first: first, offsets: offsets, data: data}, nil
}

func (b *basket) contains(entry int64) bool {
	return entry >= b.first && entry < b.first+int64(len(b.offsets)-1)
}

func (b *basket) entry(entry int64) []byte {
	i := entry - b.first
	return b.data[b.offsets[i]:b.offsets[i+1]]
}
