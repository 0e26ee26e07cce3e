package rio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/hepio/internal/compress"
	"github.com/hupe1980/hepio/internal/hash"
)

const (
	// Magic marks the start of a hepio file ("HEP1").
	Magic uint32 = 0x31504548
	// Version is the current format version.
	Version uint32 = 1

	recordMagic uint32 = 0x31434552 // "REC1"
	footerMagic uint32 = 0x46504548 // "HEPF"

	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 64
	// RecordHeaderSize is the size of a record header in bytes.
	RecordHeaderSize = 24
	// FooterSize is the size of the trailing footer in bytes.
	FooterSize = 32
)

var (
	// ErrCorrupt is the base error for every integrity failure.
	ErrCorrupt = errors.New("rio: corrupt file")
	// ErrInvalidMagic is returned when a magic number does not match.
	ErrInvalidMagic = fmt.Errorf("%w: invalid magic number", ErrCorrupt)
	// ErrInvalidVersion is returned for an unsupported format version.
	ErrInvalidVersion = fmt.Errorf("%w: unsupported version", ErrCorrupt)
	// ErrChecksumMismatch is returned when a CRC32C does not match.
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	// ErrTruncated is returned when the file is shorter than its structures claim.
	ErrTruncated = fmt.Errorf("%w: truncated", ErrCorrupt)
)

// Header is the fixed-size file header.
type Header struct {
	Version     uint32
	UUID        uuid.UUID
	Compression compress.Settings
	Created     time.Time
}

// NewHeader returns a header for a new file with a random UUID.
func NewHeader(settings compress.Settings, now time.Time) Header {
	return Header{
		Version:     Version,
		UUID:        uuid.New(),
		Compression: settings,
		Created:     now,
	}
}

// Encode serializes the header.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	copy(buf[8:24], h.UUID[:])
	binary.LittleEndian.PutUint32(buf[24:], uint32(int32(h.Compression)))
	binary.LittleEndian.PutUint64(buf[28:], uint64(h.Created.UnixNano()))
	// Reserved [36:60]
	binary.LittleEndian.PutUint32(buf[60:], hash.CRC32C(buf[:60]))
	return buf
}

// DecodeHeader parses and verifies a file header.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTruncated
	}
	if binary.LittleEndian.Uint32(buf[0:]) != Magic {
		return Header{}, ErrInvalidMagic
	}
	if !hash.Verify(buf[:60], binary.LittleEndian.Uint32(buf[60:])) {
		return Header{}, fmt.Errorf("%w: file header", ErrChecksumMismatch)
	}
	h := Header{
		Version:     binary.LittleEndian.Uint32(buf[4:]),
		Compression: compress.Settings(int32(binary.LittleEndian.Uint32(buf[24:]))),
		Created:     time.Unix(0, int64(binary.LittleEndian.Uint64(buf[28:]))),
	}
	if h.Version != Version {
		return Header{}, ErrInvalidVersion
	}
	copy(h.UUID[:], buf[8:24])
	return h, nil
}

// recordHeader precedes every record payload.
type recordHeader struct {
	Algorithm  compress.Algorithm
	RawLen     uint32
	StoredLen  uint32
	PayloadCRC uint32
}

func (rh *recordHeader) encode() []byte {
	buf := make([]byte, RecordHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], recordMagic)
	buf[4] = byte(rh.Algorithm)
	// Padding [5:8]
	binary.LittleEndian.PutUint32(buf[8:], rh.RawLen)
	binary.LittleEndian.PutUint32(buf[12:], rh.StoredLen)
	binary.LittleEndian.PutUint32(buf[16:], rh.PayloadCRC)
	binary.LittleEndian.PutUint32(buf[20:], hash.CRC32C(buf[:20]))
	return buf
}

func decodeRecordHeader(buf []byte) (recordHeader, error) {
	if len(buf) < RecordHeaderSize {
		return recordHeader{}, ErrTruncated
	}
	if binary.LittleEndian.Uint32(buf[0:]) != recordMagic {
		return recordHeader{}, fmt.Errorf("%w: record", ErrInvalidMagic)
	}
	if !hash.Verify(buf[:20], binary.LittleEndian.Uint32(buf[20:])) {
		return recordHeader{}, fmt.Errorf("%w: record header", ErrChecksumMismatch)
	}
	return recordHeader{
		Algorithm:  compress.Algorithm(buf[4]),
		RawLen:     binary.LittleEndian.Uint32(buf[8:]),
		StoredLen:  binary.LittleEndian.Uint32(buf[12:]),
		PayloadCRC: binary.LittleEndian.Uint32(buf[16:]),
	}, nil
}

// footer closes the file and locates the directory.
type footer struct {
	DirOffset int64
	NumKeys   uint32
}

func (f *footer) encode() []byte {
	buf := make([]byte, FooterSize)
	binary.LittleEndian.PutUint64(buf[0:], uint64(f.DirOffset))
	binary.LittleEndian.PutUint32(buf[8:], f.NumKeys)
	// Reserved [12:24]
	binary.LittleEndian.PutUint32(buf[24:], footerMagic)
	binary.LittleEndian.PutUint32(buf[28:], hash.CRC32C(buf[:28]))
	return buf
}

func decodeFooter(buf []byte) (footer, error) {
	if len(buf) < FooterSize {
		return footer{}, ErrTruncated
	}
	if binary.LittleEndian.Uint32(buf[24:]) != footerMagic {
		return footer{}, fmt.Errorf("%w: footer (file not closed?)", ErrInvalidMagic)
	}
	if !hash.Verify(buf[:28], binary.LittleEndian.Uint32(buf[28:])) {
		return footer{}, fmt.Errorf("%w: footer", ErrChecksumMismatch)
	}
	return footer{
		DirOffset: int64(binary.LittleEndian.Uint64(buf[0:])),
		NumKeys:   binary.LittleEndian.Uint32(buf[8:]),
	}, nil
}

// Ref locates a record inside a file.
type Ref struct {
	Offset    int64
	RawLen    uint32
	StoredLen uint32
}

// Size returns the number of bytes the record occupies on disk.
func (r Ref) Size() int64 { return RecordHeaderSize + int64(r.StoredLen) }

// Record is a payload prepared for writing.
type Record struct {
	Algorithm compress.Algorithm
	RawLen    uint32
	Data      []byte
}

// EncodeRecord compresses payload with the given settings.
// It is safe to call concurrently; only WriteRecord touches the file.
func EncodeRecord(payload []byte, settings compress.Settings) (Record, error) {
	data, alg, err := compress.Compress(payload, settings)
	if err != nil {
		return Record{}, err
	}
	return Record{Algorithm: alg, RawLen: uint32(len(payload)), Data: data}, nil
}
