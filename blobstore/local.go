package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/hepio/internal/fs"
	"github.com/hupe1980/hepio/internal/mmap"
	"github.com/hupe1980/hepio/internal/resource"
)

// stagingSuffix marks blobs that are still being written.
const stagingSuffix = ".partial"

// LocalOptions configures a LocalStore.
type LocalOptions struct {
	// FileSystem is used for writes, listing and non-mapped reads.
	FileSystem fs.FileSystem
	// Controller throttles writes; nil means unlimited.
	Controller *resource.Controller
	// DisableMmap reads through FileSystem instead of mapping files.
	DisableMmap bool
	// FileMode is the permission of created blobs.
	FileMode os.FileMode
}

// DefaultLocalOptions returns the default LocalStore options.
func DefaultLocalOptions() LocalOptions {
	return LocalOptions{
		FileSystem: fs.Default,
		FileMode:   0o644,
	}
}

// LocalStore implements BlobStore on a local directory.
type LocalStore struct {
	root string
	opts LocalOptions
}

// NewLocalStore creates a LocalStore rooted at root.
func NewLocalStore(root string, optFns ...func(o *LocalOptions)) *LocalStore {
	opts := DefaultLocalOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.FileSystem == nil {
		opts.FileSystem = fs.Default
	}
	return &LocalStore{root: root, opts: opts}
}

// Root returns the store directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading. Blobs are memory mapped unless DisableMmap is set.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := s.path(name)

	if s.opts.DisableMmap {
		f, err := s.opts.FileSystem.OpenFile(p, os.O_RDONLY, 0)
		if err != nil {
			return nil, err
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &fileBlob{f: f, size: info.Size()}, nil
	}

	m, err := mmap.Open(p)
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Create stages writes in a sibling file and renames it into place on Close.
// The parent directory must exist.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	final := s.path(name)
	staging := final + stagingSuffix

	f, err := s.opts.FileSystem.OpenFile(staging, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, s.opts.FileMode)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{
		ctx:     ctx,
		fs:      s.opts.FileSystem,
		rc:      s.opts.Controller,
		f:       f,
		staging: staging,
		final:   final,
	}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.opts.FileSystem.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// List returns blob names below root starting with prefix, using '/' separators.
// Blobs still being written are skipped.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := s.opts.FileSystem.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			name := path.Join(rel, e.Name())
			if e.IsDir() {
				if err := walk(filepath.Join(dir, e.Name()), name); err != nil {
					return err
				}
				continue
			}
			if strings.HasSuffix(name, stagingSuffix) || !strings.HasPrefix(name, prefix) {
				continue
			}
			names = append(names, name)
		}
		return nil
	}

	if err := walk(s.root, ""); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := b.m.Bytes()
	return io.NopCloser(bytes.NewReader(clip(data, off, length))), nil
}

func (b *localBlob) Close() error { return b.m.Close() }

func (b *localBlob) Size() int64 { return int64(b.m.Size()) }

func (b *localBlob) Bytes() ([]byte, error) {
	data := b.m.Bytes()
	if data == nil && b.m.Size() > 0 {
		return nil, mmap.ErrClosed
	}
	return data, nil
}

// fileBlob reads through an open fs.File.
type fileBlob struct {
	f    fs.File
	size int64
}

func (b *fileBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off >= b.size {
		return 0, io.EOF
	}
	return b.f.ReadAt(p, off)
}

func (b *fileBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if off >= b.size {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	length = min(length, b.size-off)
	return io.NopCloser(io.NewSectionReader(b.f, off, length)), nil
}

func (b *fileBlob) Close() error { return b.f.Close() }

func (b *fileBlob) Size() int64 { return b.size }

type localWritableBlob struct {
	ctx     context.Context
	fs      fs.FileSystem
	rc      *resource.Controller
	f       fs.File
	staging string
	final   string

	mu   sync.Mutex
	done bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return 0, ErrClosed
	}
	if err := w.rc.WaitIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.f.Write(p)
}

func (w *localWritableBlob) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return ErrClosed
	}
	return w.f.Sync()
}

// Close syncs the staging file and renames it to its final name.
// On failure the staging file is removed.
func (w *localWritableBlob) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return ErrClosed
	}
	w.done = true

	err := w.f.Sync()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = w.fs.Rename(w.staging, w.final)
	}
	if err != nil {
		_ = w.fs.Remove(w.staging)
	}
	return err
}

func (w *localWritableBlob) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close()
	return w.fs.Remove(w.staging)
}

func clip(data []byte, off, length int64) []byte {
	size := int64(len(data))
	if off < 0 || off >= size || length <= 0 {
		return nil
	}
	return data[off:min(off+length, size)]
}
