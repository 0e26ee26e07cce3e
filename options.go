package hepio

import (
	"github.com/hupe1980/hepio/internal/compress"
	"github.com/hupe1980/hepio/internal/fs"
	"github.com/hupe1980/hepio/internal/resource"
	"github.com/hupe1980/hepio/streamer"
)

// Compression settings are algorithm*100 + level, as in ROOT.
const (
	CompressionNone    = 0
	CompressionDefault = int(compress.DefaultSettings)
	CompressionZlib    = 100 * int(compress.AlgorithmZlib)
	CompressionLZ4     = 100 * int(compress.AlgorithmLZ4)
	CompressionZSTD    = 100 * int(compress.AlgorithmZSTD)
)

type options struct {
	compression      compress.Settings
	logger           *Logger
	metricsCollector MetricsCollector
	registry         *streamer.Registry
	fileSystem       fs.FileSystem
	resources        resource.Config
	cacheBytes       int64
}

// Option configures Create and Open.
type Option func(*options)

// WithCompression sets the compression of records written to a new file.
// Use one of the Compression constants plus a level, e.g. CompressionZSTD+3.
// A level of 0 stores records uncompressed.
func WithCompression(settings int) Option {
	return func(o *options) {
		o.compression = compress.Settings(settings)
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := hepio.NewJSONLogger(slog.LevelDebug)
//	f, _ := hepio.Create(ctx, "events.root", hepio.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsCollector configures a metrics collector for record I/O.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithRegistry sets the class registry used by trees in this file.
// The default is streamer.Default.
func WithRegistry(r *streamer.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithWorkers bounds how many records are compressed in parallel.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.resources.MaxWorkers = int64(n)
	}
}

// WithMemoryLimit bounds the bytes held by in-flight record batches.
// Batches that do not fit are compressed serially.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resources.MemoryLimitBytes = bytes
	}
}

// WithIOLimit throttles record writes to bytes per second.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resources.IOLimitBytesPerSec = bytesPerSec
	}
}

// WithCache puts a block cache of the given size in front of reads.
func WithCache(bytes int64) Option {
	return func(o *options) {
		o.cacheBytes = bytes
	}
}

// WithFileSystem replaces the file system used for local writes.
// It exists for fault injection in tests.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		compression:      compress.DefaultSettings,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		registry:         streamer.Default,
		fileSystem:       fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.registry == nil {
		o.registry = streamer.Default
	}
	if o.fileSystem == nil {
		o.fileSystem = fs.Default
	}
	return o
}
