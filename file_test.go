package hepio_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hepio"
	"github.com/hupe1980/hepio/blobstore"
	"github.com/hupe1980/hepio/hist"
	"github.com/hupe1980/hepio/internal/compress"
	"github.com/hupe1980/hepio/internal/fs"
	"github.com/hupe1980/hepio/internal/rio"
	"github.com/hupe1980/hepio/random"
	"github.com/hupe1980/hepio/streamer"
)

func newHist(t *testing.T, n int) *hist.H1F {
	t.Helper()
	h, err := hist.NewH1F("h", "gaus", 50, -4, 4)
	require.NoError(t, err)
	require.NoError(t, h.FillRandom("gaus", n, random.New(1)))
	return h
}

func TestFile_PutGet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hist.root")

	f, err := hepio.Create(ctx, path)
	require.NoError(t, err)
	assert.True(t, f.Writable())
	assert.Equal(t, hepio.CompressionDefault, f.Compression())

	h := newHist(t, 1000)
	k, err := f.Put(ctx, "h", "a histogram", h)
	require.NoError(t, err)
	assert.Equal(t, 1, k.Cycle)
	assert.Equal(t, hist.ClassH1F, k.Class)

	// Not visible before Close.
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	id := f.UUID()
	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), hepio.ErrClosed)

	r, err := hepio.Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()
	assert.False(t, r.Writable())
	assert.Equal(t, id, r.UUID())

	var got hist.H1F
	require.NoError(t, r.Get(ctx, "h", &got))
	assert.Equal(t, int64(1000), got.Entries())
	assert.Equal(t, h.NBins(), got.NBins())
	for i := 0; i <= h.NBins()+1; i++ {
		assert.Equal(t, h.BinContent(i), got.BinContent(i))
	}
}

type otherObject struct{}

func (otherObject) Class() string               { return "TGraph" }
func (otherObject) UnmarshalHEP(b []byte) error { return nil }
func (otherObject) MarshalHEP() ([]byte, error) { return []byte("graph"), nil }

func TestFile_Cycles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cycles.root")

	f, err := hepio.Create(ctx, path, hepio.WithCompression(hepio.CompressionNone))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.PutRaw(ctx, "obj", "", "TObjString", []byte{byte(i)})
		require.NoError(t, err)
	}
	k, err := f.Key("obj")
	require.NoError(t, err)
	assert.Equal(t, 3, k.Cycle)
	require.NoError(t, f.Close())

	r, err := hepio.Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	keys := r.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, "obj;1", keys[0].String())

	k, err = r.Key("obj;2")
	require.NoError(t, err)
	b, err := r.GetRaw(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, b)

	latest, err := r.Key("obj")
	require.NoError(t, err)
	b, err = r.GetRaw(ctx, latest)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, b)

	_, err = r.Key("obj;9")
	assert.ErrorIs(t, err, hepio.ErrObjectNotFound)
	_, err = r.Key("obj;x")
	assert.Error(t, err)

	var mismatch *hepio.ErrClassMismatch
	err = r.Get(ctx, "obj", otherObject{})
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "TObjString", mismatch.Got)
	assert.Equal(t, "TGraph", mismatch.Want)
}

func TestFile_Modes(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "modes.root")

	f, err := hepio.Create(ctx, path)
	require.NoError(t, err)
	_, err = f.Put(ctx, "g", "", otherObject{})
	require.NoError(t, err)
	assert.ErrorIs(t, f.Get(ctx, "g", otherObject{}), hepio.ErrWriteOnly)
	require.NoError(t, f.Close())

	_, err = f.PutRaw(ctx, "x", "", "c", nil)
	assert.ErrorIs(t, err, hepio.ErrClosed)

	r, err := hepio.Open(ctx, path)
	require.NoError(t, err)
	_, err = r.PutRaw(ctx, "x", "", "c", nil)
	assert.ErrorIs(t, err, hepio.ErrReadOnly)
	assert.ErrorIs(t, r.AddStreamerInfos(nil), hepio.ErrReadOnly)
	require.NoError(t, r.Close())

	_, err = r.Key("g")
	assert.ErrorIs(t, err, hepio.ErrClosed)
}

func TestFile_OpenErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := hepio.Open(ctx, filepath.Join(dir, "missing.root"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = hepio.Create(ctx, filepath.Join(dir, "no", "such", "dir.root"))
	assert.Error(t, err)

	_, err = hepio.Create(ctx, filepath.Join(dir, "bad.root"), hepio.WithCompression(950))
	assert.ErrorIs(t, err, compress.ErrInvalidSettings)

	garbage := filepath.Join(dir, "garbage.root")
	require.NoError(t, os.WriteFile(garbage, bytes.Repeat([]byte{0x42}, 200), 0o644))
	_, err = hepio.Open(ctx, garbage)
	assert.ErrorIs(t, err, rio.ErrCorrupt)
}

func TestFile_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corrupt.root")

	f, err := hepio.Create(ctx, path, hepio.WithCompression(hepio.CompressionNone))
	require.NoError(t, err)
	_, err = f.PutRaw(ctx, "blob", "", "TObjString", bytes.Repeat([]byte("abc"), 100))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a byte inside the first record payload.
	data[rio.HeaderSize+rio.RecordHeaderSize+10] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := hepio.Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()
	k, err := r.Key("blob")
	require.NoError(t, err)
	_, err = r.GetRaw(ctx, k)
	assert.ErrorIs(t, err, rio.ErrChecksumMismatch)
}

func TestFile_WriteRecords(t *testing.T) {
	tests := []struct {
		name string
		opts []hepio.Option
	}{
		{"serial", nil},
		{"parallel", []hepio.Option{hepio.WithWorkers(4)}},
		{"memory-bound", []hepio.Option{hepio.WithWorkers(4), hepio.WithMemoryLimit(16)}},
		{"zstd", []hepio.Option{hepio.WithWorkers(2), hepio.WithCompression(hepio.CompressionZSTD + 3)}},
		{"lz4", []hepio.Option{hepio.WithCompression(hepio.CompressionLZ4 + 1), hepio.WithIOLimit(1 << 30)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "records.root")
			metrics := &hepio.BasicMetricsCollector{}
			opts := append([]hepio.Option{hepio.WithMetricsCollector(metrics)}, tt.opts...)

			f, err := hepio.Create(ctx, path, opts...)
			require.NoError(t, err)

			payloads := make([][]byte, 16)
			for i := range payloads {
				payloads[i] = bytes.Repeat([]byte{byte(i)}, 1000+i)
			}
			refs, err := f.WriteRecords(ctx, payloads)
			require.NoError(t, err)
			require.Len(t, refs, len(payloads))
			for i := 1; i < len(refs); i++ {
				assert.Greater(t, refs[i].Offset, refs[i-1].Offset)
			}
			require.NoError(t, f.Close())

			r, err := hepio.Open(ctx, path, opts...)
			require.NoError(t, err)
			defer r.Close()
			for i, ref := range refs {
				got, err := r.ReadRecord(ctx, ref)
				require.NoError(t, err)
				assert.Equal(t, payloads[i], got)
			}

			stats := metrics.GetStats()
			assert.Equal(t, int64(len(payloads)), stats.WriteCount)
			assert.Equal(t, int64(len(payloads)), stats.ReadCount)
			assert.Zero(t, stats.WriteErrors)
		})
	}
}

func TestFile_StreamerInfos(t *testing.T) {
	type point struct{ X, Y float64 }

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "infos.root")
	reg := streamer.NewRegistry()
	c, err := streamer.Register[point](reg)
	require.NoError(t, err)

	f, err := hepio.Create(ctx, path, hepio.WithRegistry(reg))
	require.NoError(t, err)
	assert.Same(t, reg, f.Registry())
	require.NoError(t, f.AddStreamerInfos(c.Closure()))

	changed := c.Info
	changed.Checksum++
	assert.ErrorIs(t, f.AddStreamerInfos([]streamer.Info{changed}), streamer.ErrTypeMismatch)
	require.NoError(t, f.Close())

	r, err := hepio.Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	info, ok := r.StreamerInfo("point")
	require.True(t, ok)
	assert.Equal(t, c.Info, info)
	assert.NoError(t, c.Verify(r.StreamerInfos()))

	k, err := r.Key(hepio.StreamerInfoKey)
	require.NoError(t, err)
	assert.Equal(t, hepio.ClassStreamerInfo, k.Class)
}

func TestFile_Blob(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	f, err := hepio.CreateBlob(ctx, store, "runs/1.root")
	require.NoError(t, err)
	_, err = f.Put(ctx, "h", "", newHist(t, 500))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	names, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/1.root"}, names)

	r, err := hepio.OpenBlob(ctx, store, "runs/1.root", hepio.WithCache(1<<20))
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "runs/1.root", r.Name())

	var h hist.H1F
	require.NoError(t, r.Get(ctx, "h", &h))
	assert.Equal(t, int64(500), h.Entries())
}

func TestFile_FaultInjection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		fault fs.Fault
		match string
	}{
		{"write", fs.Fault{FailAfterBytes: 10}, ".partial"},
		{"sync", fs.Fault{FailAfterBytes: -1, FailOnSync: true}, ".partial"},
		{"rename", fs.Fault{FailAfterBytes: -1, FailOnRename: true}, "fault.root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "fault.root")
			faulty := fs.NewFaultyFS(nil)
			faulty.AddRule(tt.match, tt.fault)

			f, err := hepio.Create(ctx, path, hepio.WithFileSystem(faulty))
			require.NoError(t, err)
			_, err = f.PutRaw(ctx, "x", "", "TObjString", []byte("payload"))
			require.NoError(t, err)

			assert.ErrorIs(t, f.Close(), fs.ErrInjected)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

type dirtyObject struct{}

func (dirtyObject) Name() string { return "tree" }
func (dirtyObject) Dirty() bool  { return true }

func TestFile_DiscardsDirtyOnClose(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	logger := hepio.NewLogger(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f, err := hepio.Create(ctx, filepath.Join(t.TempDir(), "dirty.root"), hepio.WithLogger(logger))
	require.NoError(t, err)
	f.Attach(dirtyObject{})
	require.NoError(t, f.Close())

	assert.Contains(t, logs.String(), "discarding unwritten object")
	assert.Contains(t, logs.String(), "object=tree")
	assert.Contains(t, logs.String(), "file closed")
}
