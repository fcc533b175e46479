package galago

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    readCounter      prometheus.Counter
//	    historyHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordRead(count int, duration time.Duration, err error) {
//	    p.readCounter.Add(float64(count))
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordRead is called after each galaxy read.
	// count is the number of records returned, err is nil if successful.
	RecordRead(count int, duration time.Duration, err error)

	// RecordStitch is called after each link-stitching operation.
	RecordStitch(duration time.Duration, err error)

	// RecordHistory is called after each lineage traversal.
	// populated is the number of history slots filled.
	RecordHistory(populated int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRead(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordStitch(time.Duration, error)       {}
func (NoopMetricsCollector) RecordHistory(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ReadCount         atomic.Int64
	ReadErrors        atomic.Int64
	ReadRecords       atomic.Int64
	ReadTotalNanos    atomic.Int64
	StitchCount       atomic.Int64
	StitchErrors      atomic.Int64
	StitchTotalNanos  atomic.Int64
	HistoryCount      atomic.Int64
	HistoryErrors     atomic.Int64
	HistorySlots      atomic.Int64
	HistoryTotalNanos atomic.Int64
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(count int, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadRecords.Add(int64(count))
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordStitch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStitch(duration time.Duration, err error) {
	b.StitchCount.Add(1)
	b.StitchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.StitchErrors.Add(1)
	}
}

// RecordHistory implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHistory(populated int, duration time.Duration, err error) {
	b.HistoryCount.Add(1)
	b.HistorySlots.Add(int64(populated))
	b.HistoryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.HistoryErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ReadCount:       b.ReadCount.Load(),
		ReadErrors:      b.ReadErrors.Load(),
		ReadRecords:     b.ReadRecords.Load(),
		ReadAvgNanos:    avgNanos(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		StitchCount:     b.StitchCount.Load(),
		StitchErrors:    b.StitchErrors.Load(),
		StitchAvgNanos:  avgNanos(b.StitchTotalNanos.Load(), b.StitchCount.Load()),
		HistoryCount:    b.HistoryCount.Load(),
		HistoryErrors:   b.HistoryErrors.Load(),
		HistorySlots:    b.HistorySlots.Load(),
		HistoryAvgNanos: avgNanos(b.HistoryTotalNanos.Load(), b.HistoryCount.Load()),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ReadCount       int64
	ReadErrors      int64
	ReadRecords     int64
	ReadAvgNanos    int64
	StitchCount     int64
	StitchErrors    int64
	StitchAvgNanos  int64
	HistoryCount    int64
	HistoryErrors   int64
	HistorySlots    int64
	HistoryAvgNanos int64
}
