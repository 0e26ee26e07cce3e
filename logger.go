package hepio

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with hepio-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithFile adds a file field to the logger.
func (l *Logger) WithFile(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("file", name),
	}
}

// WithTree adds a tree field to the logger.
func (l *Logger) WithTree(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("tree", name),
	}
}

// WithBranch adds a branch field to the logger.
func (l *Logger) WithBranch(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("branch", name),
	}
}

// LogOpen logs opening a file.
func (l *Logger) LogOpen(ctx context.Context, mode string, keys int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"mode", mode,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "file opened",
			"mode", mode,
			"keys", keys,
		)
	}
}

// LogClose logs closing a file.
func (l *Logger) LogClose(ctx context.Context, keys int, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"keys", keys,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "file closed",
			"keys", keys,
			"bytes", size,
		)
	}
}

// LogKeyWrite logs a key written to the directory.
func (l *Logger) LogKeyWrite(ctx context.Context, key Key, err error) {
	if err != nil {
		l.ErrorContext(ctx, "key write failed",
			"key", key.Name,
			"class", key.Class,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "key written",
			"key", key.String(),
			"class", key.Class,
			"bytes", key.ObjLen,
		)
	}
}

// LogTreeWrite logs writing tree metadata.
func (l *Logger) LogTreeWrite(ctx context.Context, entries int64, baskets int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "tree write failed",
			"entries", entries,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "tree written",
			"entries", entries,
			"baskets", baskets,
		)
	}
}

// LogBasketFlush logs a basket written for a leaf.
func (l *Logger) LogBasketFlush(ctx context.Context, leaf string, entries, bytes int) {
	l.DebugContext(ctx, "basket flushed",
		"leaf", leaf,
		"entries", entries,
		"bytes", bytes,
	)
}

// LogDiscard logs an object dropped because it was never written.
func (l *Logger) LogDiscard(ctx context.Context, name string) {
	l.WarnContext(ctx, "discarding unwritten object on close",
		"object", name,
	)
}
