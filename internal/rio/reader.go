package rio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/hupe1980/hepio/internal/compress"
	"github.com/hupe1980/hepio/internal/hash"
)

// ReaderAt is a context-aware io.ReaderAt. blobstore.Blob satisfies it.
type ReaderAt interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
}

// Reader provides random access to the records of a finished file.
// It is safe for concurrent use if the underlying ReaderAt is.
type Reader struct {
	src    ReaderAt
	size   int64
	header Header
	keys   []Key
	dirRef Ref
}

// NewReader validates the header and footer and loads the directory.
func NewReader(ctx context.Context, src ReaderAt, size int64) (*Reader, error) {
	if size < HeaderSize+FooterSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, size)
	}
	r := &Reader{src: src, size: size}

	buf := make([]byte, HeaderSize)
	if err := r.readFull(ctx, buf, 0); err != nil {
		return nil, err
	}
	h, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	r.header = h

	buf = make([]byte, FooterSize)
	if err := r.readFull(ctx, buf, size-FooterSize); err != nil {
		return nil, err
	}
	f, err := decodeFooter(buf)
	if err != nil {
		return nil, err
	}
	if f.DirOffset < HeaderSize || f.DirOffset > size-FooterSize-RecordHeaderSize {
		return nil, fmt.Errorf("%w: directory offset %d out of range", ErrCorrupt, f.DirOffset)
	}

	dir, ref, err := r.readRecord(ctx, f.DirOffset)
	if err != nil {
		return nil, fmt.Errorf("rio: read directory: %w", err)
	}
	keys, err := decodeDirectory(dir)
	if err != nil {
		return nil, err
	}
	if uint32(len(keys)) != f.NumKeys {
		return nil, fmt.Errorf("%w: directory has %d keys, footer says %d", ErrCorrupt, len(keys), f.NumKeys)
	}
	r.keys = keys
	r.dirRef = ref
	return r, nil
}

// Header returns the file header.
func (r *Reader) Header() Header { return r.header }

// Size returns the file size in bytes.
func (r *Reader) Size() int64 { return r.size }

// Keys returns all keys sorted by name and cycle.
func (r *Reader) Keys() []Key {
	out := make([]Key, len(r.keys))
	copy(out, r.keys)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Cycle < out[j].Cycle
	})
	return out
}

// Key finds a key by name and cycle. Cycle 0 selects the highest cycle.
func (r *Reader) Key(name string, cycle int) (Key, bool) {
	return lookup(r.keys, name, cycle)
}

// ReadRecord reads, verifies and decompresses the record at off.
func (r *Reader) ReadRecord(ctx context.Context, off int64) ([]byte, error) {
	data, _, err := r.readRecord(ctx, off)
	return data, err
}

func (r *Reader) readRecord(ctx context.Context, off int64) ([]byte, Ref, error) {
	if off < HeaderSize || off+RecordHeaderSize > r.size {
		return nil, Ref{}, fmt.Errorf("%w: record offset %d out of range", ErrCorrupt, off)
	}
	buf := make([]byte, RecordHeaderSize)
	if err := r.readFull(ctx, buf, off); err != nil {
		return nil, Ref{}, err
	}
	rh, err := decodeRecordHeader(buf)
	if err != nil {
		return nil, Ref{}, fmt.Errorf("record at %d: %w", off, err)
	}
	ref := Ref{Offset: off, RawLen: rh.RawLen, StoredLen: rh.StoredLen}
	if off+ref.Size() > r.size {
		return nil, Ref{}, fmt.Errorf("%w: record at %d exceeds file", ErrTruncated, off)
	}

	stored := make([]byte, rh.StoredLen)
	if err := r.readFull(ctx, stored, off+RecordHeaderSize); err != nil {
		return nil, Ref{}, err
	}
	if !hash.Verify(stored, rh.PayloadCRC) {
		return nil, Ref{}, fmt.Errorf("%w: record at %d", ErrChecksumMismatch, off)
	}

	data, err := compress.Decompress(stored, rh.Algorithm, int(rh.RawLen))
	if err != nil {
		return nil, Ref{}, fmt.Errorf("%w: record at %d: %v", ErrCorrupt, off, err)
	}
	return data, ref, nil
}

func (r *Reader) readFull(ctx context.Context, p []byte, off int64) error {
	n, err := r.src.ReadAt(ctx, p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: short read at %d", ErrTruncated, off)
	}
	return err
}
