package hepio

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting I/O metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordWrite is called after each record is written.
	// raw is the payload size, stored the size after compression.
	RecordWrite(raw, stored int, duration time.Duration, err error)

	// RecordRead is called after each record is read and decompressed.
	RecordRead(raw, stored int, duration time.Duration, err error)

	// RecordFill is called after each tree fill with the bytes buffered.
	RecordFill(bytes int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordWrite(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRead(int, int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordFill(int, time.Duration)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	WriteCount       atomic.Int64
	WriteErrors      atomic.Int64
	WriteRawBytes    atomic.Int64
	WriteStoredBytes atomic.Int64
	WriteTotalNanos  atomic.Int64
	ReadCount        atomic.Int64
	ReadErrors       atomic.Int64
	ReadRawBytes     atomic.Int64
	ReadTotalNanos   atomic.Int64
	FillCount        atomic.Int64
	FillBytes        atomic.Int64
	FillTotalNanos   atomic.Int64
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(raw, stored int, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
		return
	}
	b.WriteRawBytes.Add(int64(raw))
	b.WriteStoredBytes.Add(int64(stored))
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(raw, _ int, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
		return
	}
	b.ReadRawBytes.Add(int64(raw))
}

// RecordFill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFill(bytes int, duration time.Duration) {
	b.FillCount.Add(1)
	b.FillBytes.Add(int64(bytes))
	b.FillTotalNanos.Add(duration.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		WriteCount:       b.WriteCount.Load(),
		WriteErrors:      b.WriteErrors.Load(),
		WriteRawBytes:    b.WriteRawBytes.Load(),
		WriteStoredBytes: b.WriteStoredBytes.Load(),
		WriteAvgNanos:    avg(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
		ReadCount:        b.ReadCount.Load(),
		ReadErrors:       b.ReadErrors.Load(),
		ReadRawBytes:     b.ReadRawBytes.Load(),
		ReadAvgNanos:     avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		FillCount:        b.FillCount.Load(),
		FillBytes:        b.FillBytes.Load(),
	}
	if s.WriteStoredBytes > 0 {
		s.CompressionFactor = float64(s.WriteRawBytes) / float64(s.WriteStoredBytes)
	}
	return s
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	WriteCount        int64
	WriteErrors       int64
	WriteRawBytes     int64
	WriteStoredBytes  int64
	WriteAvgNanos     int64
	CompressionFactor float64
	ReadCount         int64
	ReadErrors        int64
	ReadRawBytes      int64
	ReadAvgNanos      int64
	FillCount         int64
	FillBytes         int64
}
