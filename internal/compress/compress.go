// Package compress implements record payload compression for hepio files.
//
// Compression is configured with ROOT-style integer settings:
// algorithm*100 + level. For example 101 is zlib level 1, 404 is LZ4 and
// 505 is ZSTD level 5. A level of zero disables compression.
//
// If compression does not shrink a payload to at most 90% of its size the
// payload is stored raw and the record is tagged AlgorithmNone.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm identifies a compression algorithm as stored in a record header.
type Algorithm uint8

const (
	// AlgorithmNone stores payloads uncompressed.
	AlgorithmNone Algorithm = 0
	// AlgorithmZlib is deflate with a zlib wrapper (ROOT's general purpose default).
	AlgorithmZlib Algorithm = 1
	// AlgorithmLZ4 is LZ4 block compression (fast, good for hot data).
	AlgorithmLZ4 Algorithm = 4
	// AlgorithmZSTD is ZSTD (better ratio).
	AlgorithmZSTD Algorithm = 5
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmZlib:
		return "zlib"
	case AlgorithmLZ4:
		return "lz4"
	case AlgorithmZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// Settings is algorithm*100 + level.
type Settings int

// DefaultSettings is zlib at level 1.
const DefaultSettings Settings = 101

// ErrInvalidSettings is returned for an unknown algorithm or out of range level.
var ErrInvalidSettings = errors.New("compress: invalid settings")

// ErrSizeMismatch is returned when a payload does not inflate to its recorded size.
var ErrSizeMismatch = errors.New("compress: decompressed size mismatch")

// NewSettings builds Settings from an algorithm and level.
func NewSettings(alg Algorithm, level int) Settings {
	return Settings(int(alg)*100 + level)
}

// Algorithm returns the configured algorithm, or AlgorithmNone when the level is zero.
func (s Settings) Algorithm() Algorithm {
	alg, _ := s.resolved()
	return alg
}

// Level returns the compression level.
func (s Settings) Level() int { return int(s) % 100 }

// Validate checks that the settings name a supported algorithm.
func (s Settings) Validate() error {
	if s < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSettings, int(s))
	}
	if s.Level() == 0 {
		return nil
	}
	switch Algorithm(int(s) / 100) {
	case AlgorithmZlib, AlgorithmLZ4, AlgorithmZSTD:
		return nil
	case 0:
		// Plain level without algorithm: ROOT treats this as the default algorithm.
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidSettings, int(s))
	}
}

// resolved maps a bare level (e.g. 1) to zlib, as ROOT does.
func (s Settings) resolved() (Algorithm, int) {
	level := s.Level()
	if level == 0 {
		return AlgorithmNone, 0
	}
	alg := Algorithm(int(s) / 100)
	if alg == 0 {
		alg = AlgorithmZlib
	}
	return alg, level
}

func (s Settings) String() string {
	alg, level := s.resolved()
	if alg == AlgorithmNone {
		return "none"
	}
	return fmt.Sprintf("%s:%d", alg, level)
}

// Compress compresses src according to s. It returns the bytes to store
// and the algorithm that was actually applied.
func Compress(src []byte, s Settings) ([]byte, Algorithm, error) {
	if err := s.Validate(); err != nil {
		return nil, AlgorithmNone, err
	}
	alg, level := s.resolved()
	if alg == AlgorithmNone || len(src) == 0 {
		return src, AlgorithmNone, nil
	}

	var (
		out []byte
		err error
	)
	switch alg {
	case AlgorithmZlib:
		out, err = compressZlib(src, level)
	case AlgorithmLZ4:
		out, err = compressLZ4(src)
	case AlgorithmZSTD:
		out = compressZSTD(src, level)
	}
	if err != nil {
		return nil, AlgorithmNone, err
	}

	if len(out) == 0 || float64(len(out)) > float64(len(src))*0.9 {
		return src, AlgorithmNone, nil
	}
	return out, alg, nil
}

// Decompress inflates src, which was produced by Compress with alg, into
// a buffer of exactly rawLen bytes.
func Decompress(src []byte, alg Algorithm, rawLen int) ([]byte, error) {
	switch alg {
	case AlgorithmNone:
		if len(src) != rawLen {
			return nil, fmt.Errorf("%w: stored %d, want %d", ErrSizeMismatch, len(src), rawLen)
		}
		return src, nil
	case AlgorithmZlib:
		return decompressZlib(src, rawLen)
	case AlgorithmLZ4:
		dst := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, n, rawLen)
		}
		return dst, nil
	case AlgorithmZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		out, err := dec.DecodeAll(src, make([]byte, 0, rawLen))
		if err != nil {
			return nil, err
		}
		if len(out) != rawLen {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(out), rawLen)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrInvalidSettings, alg)
	}
}

func compressZlib(src []byte, level int) ([]byte, error) {
	if level > zlib.BestCompression {
		level = zlib.BestCompression
	}
	var buf bytes.Buffer
	buf.Grow(len(src) / 2)
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressZlib(src []byte, rawLen int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	dst := make([]byte, rawLen)
	if _, err := io.ReadFull(r, dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSizeMismatch, err)
	}
	return dst, nil
}

func compressLZ4(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return dst[:n], nil
}

// One encoder pool per zstd speed class (SpeedFastest..SpeedBestCompression).
var (
	zstdEncoderPools [zstd.SpeedBestCompression + 1]sync.Pool
	zstdDecoderPool  sync.Pool
)

func compressZSTD(src []byte, level int) []byte {
	speed := zstd.EncoderLevelFromZstd(level)
	pool := &zstdEncoderPools[speed]

	var enc *zstd.Encoder
	if v := pool.Get(); v != nil {
		enc = v.(*zstd.Encoder)
	} else {
		enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(speed))
	}
	defer pool.Put(enc)

	return enc.EncodeAll(src, make([]byte, 0, len(src)/2))
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}
