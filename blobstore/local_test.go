package blobstore

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/hepio/internal/fs"
	"github.com/hupe1980/hepio/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	for _, disableMmap := range []bool{false, true} {
		name := "mmap"
		if disableMmap {
			name = "file"
		}
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			tmpDir := t.TempDir()
			store := NewLocalStore(tmpDir, func(o *LocalOptions) { o.DisableMmap = disableMmap })

			data := []byte("hello world, this is a container blob")
			w, err := store.Create(ctx, "testevents.root")
			require.NoError(t, err)
			n, err := w.Write(data)
			require.NoError(t, err)
			require.Equal(t, len(data), n)

			// Not visible before Close.
			_, err = os.Stat(filepath.Join(tmpDir, "testevents.root"))
			require.True(t, os.IsNotExist(err))
			require.NoError(t, w.Close())

			blob, err := store.Open(ctx, "testevents.root")
			require.NoError(t, err)
			defer blob.Close()
			require.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err = blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			assert.Equal(t, 5, n)
			assert.Equal(t, "world", string(buf))

			n, err = blob.ReadAt(ctx, make([]byte, 10), int64(len(data))-4)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, 4, n)

			rc, err := blob.ReadRange(ctx, 0, 5)
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, "hello", string(got))
			require.NoError(t, rc.Close())

			all, err := ReadAll(ctx, store, "testevents.root")
			require.NoError(t, err)
			assert.Equal(t, data, all)
		})
	}
}

func TestLocalStore_ListDelete(t *testing.T) {
	ctx := t.Context()
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "runs"), 0o755))
	require.NoError(t, store.Put(ctx, "a.root", []byte("a")))
	require.NoError(t, store.Put(ctx, "runs/b.root", []byte("b")))

	// A pending write is not listed.
	w, err := store.Create(ctx, "pending.root")
	require.NoError(t, err)
	defer func() { _ = w.Abort() }()

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.root", "runs/b.root"}, names)

	names, err = store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/b.root"}, names)

	require.NoError(t, store.Delete(ctx, "a.root"))
	require.NoError(t, store.Delete(ctx, "a.root"))
	_, err = store.Open(ctx, "a.root")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_MissingDirectory(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	_, err := store.Create(t.Context(), "x.root")
	assert.Error(t, err)

	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_Abort(t *testing.T) {
	ctx := t.Context()
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	w, err := store.Create(ctx, "aborted.root")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	require.NoError(t, w.Abort())

	_, err = w.Write([]byte("more"))
	assert.ErrorIs(t, err, ErrClosed)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_Faults(t *testing.T) {
	ctx := t.Context()
	tmpDir := t.TempDir()

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("short.root", fs.Fault{FailAfterBytes: 4})
	ffs.AddRule("norename.root", fs.Fault{FailAfterBytes: -1, FailOnRename: true})
	store := NewLocalStore(tmpDir, func(o *LocalOptions) { o.FileSystem = ffs })

	assert.ErrorIs(t, store.Put(ctx, "short.root", []byte("too long")), fs.ErrInjected)

	w, err := store.Create(ctx, "norename.root")
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), fs.ErrInjected)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging files are removed on failure")
}

func TestLocalStore_IOLimit(t *testing.T) {
	ctx := t.Context()
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	store := NewLocalStore(t.TempDir(), func(o *LocalOptions) { o.Controller = rc })

	data := make([]byte, 1<<10)
	require.NoError(t, store.Put(ctx, "limited.root", data))

	got, err := ReadAll(ctx, store, "limited.root")
	require.NoError(t, err)
	assert.Len(t, got, len(data))
}
