package rio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/hepio/internal/hash"
)

// ErrFinished is returned when writing to a Writer after Finish.
var ErrFinished = errors.New("rio: writer finished")

// Writer appends records to an io.Writer. It never seeks.
// A Writer is not safe for concurrent use.
type Writer struct {
	w        io.Writer
	off      int64
	header   Header
	keys     []Key
	cycles   map[string]int
	finished bool
}

// NewWriter writes the file header and returns a Writer positioned after it.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if err := h.Compression.Validate(); err != nil {
		return nil, err
	}
	if h.Version == 0 {
		h.Version = Version
	}
	wr := &Writer{
		w:      w,
		header: h,
		cycles: make(map[string]int),
	}
	if err := wr.write(h.Encode()); err != nil {
		return nil, fmt.Errorf("rio: write header: %w", err)
	}
	return wr, nil
}

// Header returns the file header.
func (w *Writer) Header() Header { return w.header }

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 { return w.off }

// Keys returns the keys added so far.
func (w *Writer) Keys() []Key {
	out := make([]Key, len(w.keys))
	copy(out, w.keys)
	return out
}

// Key finds a key added so far. Cycle 0 selects the highest cycle.
func (w *Writer) Key(name string, cycle int) (Key, bool) {
	return lookup(w.keys, name, cycle)
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.off += int64(n)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	return err
}

// WriteRecord appends an encoded record and returns its location.
func (w *Writer) WriteRecord(rec Record) (Ref, error) {
	if w.finished {
		return Ref{}, ErrFinished
	}
	rh := recordHeader{
		Algorithm:  rec.Algorithm,
		RawLen:     rec.RawLen,
		StoredLen:  uint32(len(rec.Data)),
		PayloadCRC: hash.CRC32C(rec.Data),
	}
	ref := Ref{Offset: w.off, RawLen: rh.RawLen, StoredLen: rh.StoredLen}
	if err := w.write(rh.encode()); err != nil {
		return Ref{}, err
	}
	if err := w.write(rec.Data); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

// WritePayload compresses payload with the file settings and appends it.
func (w *Writer) WritePayload(payload []byte) (Ref, error) {
	rec, err := EncodeRecord(payload, w.header.Compression)
	if err != nil {
		return Ref{}, err
	}
	return w.WriteRecord(rec)
}

// AddKey registers a named object stored at ref. The cycle is assigned
// automatically: 1 for a new name, one more than the last otherwise.
func (w *Writer) AddKey(k Key, ref Ref) Key {
	w.cycles[k.Name]++
	k.Cycle = w.cycles[k.Name]
	k.Offset = ref.Offset
	k.ObjLen = ref.RawLen
	if k.Datime.IsZero() {
		k.Datime = time.Now()
	}
	w.keys = append(w.keys, k)
	return k
}

// Finish writes the directory and the footer. The Writer cannot be used
// afterwards. The underlying io.Writer is not closed.
func (w *Writer) Finish() error {
	if w.finished {
		return ErrFinished
	}
	ref, err := w.WritePayload(encodeDirectory(w.keys))
	if err != nil {
		return fmt.Errorf("rio: write directory: %w", err)
	}
	w.finished = true

	f := footer{DirOffset: ref.Offset, NumKeys: uint32(len(w.keys))}
	if err := w.write(f.encode()); err != nil {
		return fmt.Errorf("rio: write footer: %w", err)
	}
	return nil
}
