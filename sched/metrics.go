package sched

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting poller metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordMark is called after each slot activation.
	RecordMark()

	// RecordDrain is called after each drained slab batch. count is the
	// number of slots handled, duration the total handler time, err the
	// first handler error (nil if all succeeded).
	RecordDrain(count int, duration time.Duration, err error)

	// RecordEmptyPoll is called when a scan pass finds no active slot.
	RecordEmptyPoll()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMark()                           {}
func (NoopMetricsCollector) RecordDrain(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEmptyPoll()                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	MarkCount       atomic.Int64
	DrainCount      atomic.Int64
	DrainSlots      atomic.Int64
	DrainErrors     atomic.Int64
	DrainTotalNanos atomic.Int64
	EmptyPolls      atomic.Int64
}

// RecordMark implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMark() {
	b.MarkCount.Add(1)
}

// RecordDrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDrain(count int, duration time.Duration, err error) {
	b.DrainCount.Add(1)
	b.DrainSlots.Add(int64(count))
	b.DrainTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DrainErrors.Add(1)
	}
}

// RecordEmptyPoll implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmptyPoll() {
	b.EmptyPolls.Add(1)
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	MarkCount     int64
	DrainCount    int64
	DrainSlots    int64
	DrainErrors   int64
	DrainAvgNanos int64
	EmptyPolls    int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		MarkCount:   b.MarkCount.Load(),
		DrainCount:  b.DrainCount.Load(),
		DrainSlots:  b.DrainSlots.Load(),
		DrainErrors: b.DrainErrors.Load(),
		EmptyPolls:  b.EmptyPolls.Load(),
	}
	if s.DrainCount > 0 {
		s.DrainAvgNanos = b.DrainTotalNanos.Load() / s.DrainCount
	}
	return s
}
