package smoke

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hepio"
	"github.com/hupe1980/hepio/internal/fs"
	"github.com/hupe1980/hepio/internal/rio"
	"github.com/hupe1980/hepio/random"
	"github.com/hupe1980/hepio/streamer"
)

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(true, "ok"))
	err := Check(false, "row count")
	assert.ErrorIs(t, err, ErrCheckFailed)
	assert.EqualError(t, err, "testrootio FAILED : row count")
}

func TestCheckHistogram(t *testing.T) {
	rng := random.New(random.DefaultSeed)
	for _, fname := range []string{"gaus", "expo", "pol1", "uniform", "breitwigner"} {
		for _, n := range []int{0, 1, 10, 10000} {
			assert.NoError(t, CheckHistogram(fname, n, rng), "%s n=%d", fname, n)
		}
	}
	assert.Error(t, CheckHistogram("nope", 10, rng))
}

func TestEventsRoundTrip(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name              string
		events, particles int
		opts              []hepio.Option
	}{
		{"10x10", 10, 10, nil},
		{"empty", 0, 0, nil},
		{"no particles", 5, 0, nil},
		{"large", 2000, 20, []hepio.Option{hepio.WithWorkers(4)}},
		{"zstd", 100, 3, []hepio.Option{hepio.WithCompression(hepio.CompressionZSTD + 5)}},
		{"uncompressed", 100, 3, []hepio.Option{hepio.WithCompression(hepio.CompressionNone)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultFile)
			opts := append([]hepio.Option{hepio.WithRegistry(streamer.NewRegistry())}, tt.opts...)
			require.NoError(t, CreateEventsFile(ctx, path, tt.events, tt.particles, opts...))
			require.NoError(t, VerifyEventsFile(ctx, path, tt.events, tt.particles, opts...))
		})
	}
}

func TestVerifyEventsFile_Mismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, CreateEventsFile(ctx, path, 3, 2))

	err := VerifyEventsFile(ctx, path, 4, 2)
	assert.ErrorIs(t, err, ErrCheckFailed)
	assert.ErrorContains(t, err, "tree has 3 entries, want 4")

	err = VerifyEventsFile(ctx, path, 3, 5)
	assert.ErrorIs(t, err, ErrCheckFailed)
	assert.ErrorContains(t, err, "entry 0 has 2 particles, want 5")
}

func TestVerifyEventsFile_Missing(t *testing.T) {
	err := VerifyEventsFile(context.Background(), filepath.Join(t.TempDir(), "absent.root"), 1, 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVerifyEventsFile_Malformed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, CreateEventsFile(ctx, path, 3, 2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-5], 0o644))

	assert.ErrorIs(t, VerifyEventsFile(ctx, path, 3, 2), rio.ErrCorrupt)
}

func TestCreateEventsFile_NotWritable(t *testing.T) {
	ctx := context.Background()

	err := CreateEventsFile(ctx, filepath.Join(t.TempDir(), "missing", DefaultFile), 1, 1)
	assert.ErrorIs(t, err, os.ErrNotExist)

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule(DefaultFile, fs.Fault{FailOnOpen: true, FailAfterBytes: -1})
	err = CreateEventsFile(ctx, filepath.Join(t.TempDir(), DefaultFile), 1, 1, hepio.WithFileSystem(faulty))
	assert.ErrorIs(t, err, fs.ErrInjected)
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, Run(context.Background(), path, 10, 10))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
