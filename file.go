package hepio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/hepio/blobstore"
	"github.com/hupe1980/hepio/internal/cache"
	"github.com/hupe1980/hepio/internal/compress"
	"github.com/hupe1980/hepio/internal/resource"
	"github.com/hupe1980/hepio/internal/rio"
	"github.com/hupe1980/hepio/streamer"
)

const (
	// StreamerInfoKey holds the class layouts of every type stored in trees.
	StreamerInfoKey = "StreamerInfo"
	// ClassStreamerInfo is the class of the StreamerInfo key.
	ClassStreamerInfo = "TStreamerInfoList"

	writeBufferSize = 1 << 20
)

// File is a container of named objects and record batches.
//
// A File is either being written (Create) or read (Open). Writes are
// streamed to the store and become visible on Close. A File is safe for
// concurrent use.
type File struct {
	mu sync.Mutex

	name string
	opts options
	rc   *resource.Controller
	log  *Logger

	// write side
	wblob   blobstore.WritableBlob
	buf     *bufio.Writer
	w       *rio.Writer
	pending []Pending

	// read side
	blob blobstore.Blob
	r    *rio.Reader

	header rio.Header
	infos  map[string]streamer.Info
	closed bool
}

// Create creates a local file at path, replacing any existing file on Close.
// The parent directory must exist.
func Create(ctx context.Context, path string, optFns ...Option) (*File, error) {
	o := applyOptions(optFns)
	store := blobstore.NewLocalStore(filepath.Dir(path), func(lo *blobstore.LocalOptions) {
		lo.FileSystem = o.fileSystem
	})
	return create(ctx, store, filepath.Base(path), path, o)
}

// CreateBlob creates a file as blob name in store.
func CreateBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*File, error) {
	return create(ctx, store, name, name, applyOptions(optFns))
}

func create(ctx context.Context, store blobstore.BlobStore, blobName, name string, o options) (*File, error) {
	log := o.logger.WithFile(name)
	if err := o.compression.Validate(); err != nil {
		log.LogOpen(ctx, "create", 0, err)
		return nil, err
	}

	wb, err := store.Create(ctx, blobName)
	if err != nil {
		err = fmt.Errorf("hepio: create %s: %w", name, err)
		log.LogOpen(ctx, "create", 0, err)
		return nil, err
	}

	buf := bufio.NewWriterSize(wb, writeBufferSize)
	w, err := rio.NewWriter(buf, rio.NewHeader(o.compression, time.Now()))
	if err != nil {
		_ = wb.Abort()
		log.LogOpen(ctx, "create", 0, err)
		return nil, err
	}

	log.LogOpen(ctx, "create", 0, nil)
	return &File{
		name:   name,
		opts:   o,
		rc:     resource.NewController(o.resources),
		log:    log,
		wblob:  wb,
		buf:    buf,
		w:      w,
		header: w.Header(),
		infos:  make(map[string]streamer.Info),
	}, nil
}

// Open opens the local file at path for reading.
func Open(ctx context.Context, path string, optFns ...Option) (*File, error) {
	o := applyOptions(optFns)
	store := blobstore.NewLocalStore(filepath.Dir(path), func(lo *blobstore.LocalOptions) {
		lo.FileSystem = o.fileSystem
	})
	return open(ctx, store, filepath.Base(path), path, o)
}

// OpenBlob opens blob name in store for reading.
func OpenBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*File, error) {
	return open(ctx, store, name, name, applyOptions(optFns))
}

func open(ctx context.Context, store blobstore.BlobStore, blobName, name string, o options) (*File, error) {
	log := o.logger.WithFile(name)
	rc := resource.NewController(o.resources)
	if o.cacheBytes > 0 {
		store = blobstore.NewCachingStore(store, cache.NewShardedLRUBlockCache(o.cacheBytes, rc), blobstore.DefaultBlockSize)
	}

	blob, err := store.Open(ctx, blobName)
	if err != nil {
		err = fmt.Errorf("hepio: open %s: %w", name, err)
		log.LogOpen(ctx, "read", 0, err)
		return nil, err
	}

	r, err := rio.NewReader(ctx, blob, blob.Size())
	if err != nil {
		_ = blob.Close()
		err = fmt.Errorf("hepio: open %s: %w", name, err)
		log.LogOpen(ctx, "read", 0, err)
		return nil, err
	}

	f := &File{
		name:   name,
		opts:   o,
		rc:     rc,
		log:    log,
		blob:   blob,
		r:      r,
		header: r.Header(),
		infos:  make(map[string]streamer.Info),
	}
	if err := f.loadStreamerInfos(ctx); err != nil {
		_ = blob.Close()
		log.LogOpen(ctx, "read", 0, err)
		return nil, err
	}

	log.LogOpen(ctx, "read", len(r.Keys()), nil)
	return f, nil
}

func (f *File) loadStreamerInfos(ctx context.Context) error {
	k, ok := f.r.Key(StreamerInfoKey, 0)
	if !ok {
		return nil
	}
	data, err := f.readRecord(ctx, k.Offset)
	if err != nil {
		return fmt.Errorf("hepio: read streamer infos: %w", err)
	}
	infos, err := streamer.DecodeInfos(data)
	if err != nil {
		return err
	}
	for _, info := range infos {
		f.infos[info.Class] = info
	}
	return nil
}

// Name returns the path or blob name the file was opened with.
func (f *File) Name() string { return f.name }

// UUID returns the file identifier written in the header.
func (f *File) UUID() uuid.UUID { return f.header.UUID }

// Created returns the creation time written in the header.
func (f *File) Created() time.Time { return f.header.Created }

// Compression returns the compression settings of the file.
func (f *File) Compression() int { return int(f.header.Compression) }

// Writable reports whether the file was created for writing.
func (f *File) Writable() bool { return f.w != nil }

// Registry returns the class registry used for trees in this file.
func (f *File) Registry() *streamer.Registry { return f.opts.registry }

// Logger returns the file logger.
func (f *File) Logger() *Logger { return f.log }

// Metrics returns the configured metrics collector.
func (f *File) Metrics() MetricsCollector { return f.opts.metricsCollector }

// Size returns the file size, or the bytes written so far.
func (f *File) Size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.w != nil {
		return f.w.Offset()
	}
	return f.r.Size()
}

// Keys returns every key sorted by name and cycle.
func (f *File) Keys() []Key {
	f.mu.Lock()
	defer f.mu.Unlock()

	var raw []rio.Key
	if f.w != nil {
		raw = f.w.Keys()
	} else {
		raw = f.r.Keys()
	}
	keys := make([]Key, len(raw))
	for i, k := range raw {
		keys[i] = keyFrom(k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Cycle < keys[j].Cycle
	})
	return keys
}

// Key looks up "name" (highest cycle) or "name;cycle".
func (f *File) Key(namecycle string) (Key, error) {
	name, cycle, err := rio.ParseName(namecycle)
	if err != nil {
		return Key{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return Key{}, ErrClosed
	}

	var (
		k  rio.Key
		ok bool
	)
	if f.w != nil {
		k, ok = f.w.Key(name, cycle)
	} else {
		k, ok = f.r.Key(name, cycle)
	}
	if !ok {
		return Key{}, fmt.Errorf("%w: %s", ErrObjectNotFound, namecycle)
	}
	return keyFrom(k), nil
}

// Put stores obj under name. Storing a name again adds a new cycle.
func (f *File) Put(ctx context.Context, name, title string, obj Object) (Key, error) {
	payload, err := obj.MarshalHEP()
	if err != nil {
		return Key{}, fmt.Errorf("hepio: marshal %s: %w", name, err)
	}
	return f.PutRaw(ctx, name, title, obj.Class(), payload)
}

// PutRaw stores an encoded payload of the given class under name.
func (f *File) PutRaw(ctx context.Context, name, title, class string, payload []byte) (Key, error) {
	refs, err := f.WriteRecords(ctx, [][]byte{payload})
	if err != nil {
		f.log.LogKeyWrite(ctx, Key{Name: name, Class: class}, err)
		return Key{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return Key{}, ErrClosed
	}
	ref := rio.Ref{Offset: refs[0].Offset, RawLen: refs[0].RawLen, StoredLen: refs[0].StoredLen}
	k := keyFrom(f.w.AddKey(rio.Key{Name: name, Title: title, Class: class}, ref))
	f.log.LogKeyWrite(ctx, k, nil)
	return k, nil
}

// Get reads the object stored under namecycle into obj.
func (f *File) Get(ctx context.Context, namecycle string, obj Unmarshaler) error {
	k, err := f.Key(namecycle)
	if err != nil {
		return err
	}
	if k.Class != obj.Class() {
		return &ErrClassMismatch{Name: namecycle, Want: obj.Class(), Got: k.Class}
	}
	payload, err := f.GetRaw(ctx, k)
	if err != nil {
		return err
	}
	if err := obj.UnmarshalHEP(payload); err != nil {
		return fmt.Errorf("hepio: unmarshal %s: %w", namecycle, err)
	}
	return nil
}

// GetRaw returns the payload stored under k.
func (f *File) GetRaw(ctx context.Context, k Key) ([]byte, error) {
	return f.ReadRecord(ctx, RecordRef{Offset: k.offset, RawLen: k.ObjLen})
}

// WriteRecord compresses and appends one payload.
func (f *File) WriteRecord(ctx context.Context, payload []byte) (RecordRef, error) {
	refs, err := f.WriteRecords(ctx, [][]byte{payload})
	if err != nil {
		return RecordRef{}, err
	}
	return refs[0], nil
}

// WriteRecords compresses payloads, in parallel when workers and memory
// allow, and appends them in order.
func (f *File) WriteRecords(ctx context.Context, payloads [][]byte) ([]RecordRef, error) {
	if err := f.checkWritable(); err != nil {
		return nil, err
	}

	start := time.Now()
	recs, err := f.encodeRecords(ctx, payloads)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}

	refs := make([]RecordRef, len(recs))
	for i, rec := range recs {
		if err := f.rc.WaitIO(ctx, rio.RecordHeaderSize+len(rec.Data)); err != nil {
			return nil, err
		}
		ref, err := f.w.WriteRecord(rec)
		f.opts.metricsCollector.RecordWrite(int(rec.RawLen), len(rec.Data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("hepio: write record: %w", err)
		}
		refs[i] = refFrom(ref)
	}
	return refs, nil
}

func (f *File) encodeRecords(ctx context.Context, payloads [][]byte) ([]rio.Record, error) {
	settings := f.header.Compression
	recs := make([]rio.Record, len(payloads))

	var total int64
	for _, p := range payloads {
		total += int64(len(p))
	}

	if len(payloads) < 2 || f.rc.Workers() < 2 || settings.Algorithm() == compress.AlgorithmNone || !f.rc.TryAcquireMemory(total) {
		for i, p := range payloads {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, err := rio.EncodeRecord(p, settings)
			if err != nil {
				return nil, err
			}
			recs[i] = rec
		}
		return recs, nil
	}
	defer f.rc.ReleaseMemory(total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.rc.Workers())
	for i, p := range payloads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := rio.EncodeRecord(p, settings)
			if err != nil {
				return err
			}
			recs[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

// ReadRecord reads and decompresses a record.
func (f *File) ReadRecord(ctx context.Context, ref RecordRef) ([]byte, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, ErrClosed
	case f.r == nil:
		f.mu.Unlock()
		return nil, ErrWriteOnly
	}
	f.mu.Unlock()
	return f.readRecord(ctx, ref.Offset)
}

func (f *File) readRecord(ctx context.Context, off int64) ([]byte, error) {
	start := time.Now()
	data, err := f.r.ReadRecord(ctx, off)
	f.opts.metricsCollector.RecordRead(len(data), 0, time.Since(start), err)
	return data, err
}

// AddStreamerInfos records class layouts to be written with the file.
func (f *File) AddStreamerInfos(infos []streamer.Info) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, info := range infos {
		if old, ok := f.infos[info.Class]; ok && old.Checksum != info.Checksum {
			return fmt.Errorf("%w: class %q stored with two layouts", streamer.ErrTypeMismatch, info.Class)
		}
		f.infos[info.Class] = info
	}
	return nil
}

// StreamerInfo returns the stored layout of class.
func (f *File) StreamerInfo(class string) (streamer.Info, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[class]
	return info, ok
}

// StreamerInfos returns every stored layout keyed by class.
func (f *File) StreamerInfos() map[string]streamer.Info {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]streamer.Info, len(f.infos))
	for k, v := range f.infos {
		out[k] = v
	}
	return out
}

// Attach registers an object that should be written before Close.
// Objects still dirty at Close are discarded with a warning.
func (f *File) Attach(p Pending) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, p)
}

func (f *File) checkWritable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.closed:
		return ErrClosed
	case f.w == nil:
		return ErrReadOnly
	}
	return nil
}

// Close finishes a written file and makes it visible, or releases a read file.
// Closing twice returns ErrClosed.
func (f *File) Close() error {
	ctx := context.Background()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()

	for _, p := range pending {
		if p.Dirty() {
			f.log.LogDiscard(ctx, p.Name())
		}
	}

	if f.r != nil {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		err := f.blob.Close()
		f.log.LogClose(ctx, len(f.r.Keys()), f.r.Size(), err)
		return err
	}

	err := f.writeStreamerInfos(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if err == nil {
		err = f.w.Finish()
	}
	if err == nil {
		err = f.buf.Flush()
	}
	if err == nil {
		err = f.wblob.Close()
	}
	if err != nil {
		err = errors.Join(fmt.Errorf("hepio: close %s: %w", f.name, err), f.wblob.Abort())
	}
	f.log.LogClose(ctx, len(f.w.Keys()), f.w.Offset(), err)
	return err
}

func (f *File) writeStreamerInfos(ctx context.Context) error {
	f.mu.Lock()
	infos := make([]streamer.Info, 0, len(f.infos))
	for _, info := range f.infos {
		infos = append(infos, info)
	}
	f.mu.Unlock()
	if len(infos) == 0 {
		return nil
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Class < infos[j].Class })
	_, err := f.PutRaw(ctx, StreamerInfoKey, "class layouts", ClassStreamerInfo, streamer.EncodeInfos(infos))
	return err
}
