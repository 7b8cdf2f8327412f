package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ticksApplied  atomic.Uint64
	ticksIgnored  atomic.Uint64 // unknown symbol, dropped
	snapshotLoads atomic.Uint64
	ratioFetches  atomic.Uint64
	ratioFailures atomic.Uint64
	reconnects    atomic.Uint64
	errorsTotal   atomic.Uint64

	// Gauges
	streamConnected atomic.Int32 // 1 = connected, 0 = disconnected
	degraded        atomic.Int32 // 1 = degraded, 0 = healthy
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTickApplied records one merged ticker update.
func (m *Metrics) RecordTickApplied() {
	m.ticksApplied.Add(1)
}

// RecordTickIgnored records an update dropped for an unknown symbol.
func (m *Metrics) RecordTickIgnored() {
	m.ticksIgnored.Add(1)
}

// RecordSnapshotLoad records one successful bulk snapshot load.
func (m *Metrics) RecordSnapshotLoad() {
	m.snapshotLoads.Add(1)
}

// RecordRatioFetch records one attempted ratio fetch.
func (m *Metrics) RecordRatioFetch() {
	m.ratioFetches.Add(1)
}

// RecordRatioFailure records a failed ratio fetch (cached as N/A).
func (m *Metrics) RecordRatioFailure() {
	m.ratioFailures.Add(1)
}

// RecordReconnect records one stream reconnect attempt.
func (m *Metrics) RecordReconnect() {
	m.reconnects.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// SetStreamConnected sets the stream connection gauge.
func (m *Metrics) SetStreamConnected(connected bool) {
	if connected {
		m.streamConnected.Store(1)
	} else {
		m.streamConnected.Store(0)
	}
}

// SetDegraded sets the degraded-status gauge.
func (m *Metrics) SetDegraded(degraded bool) {
	if degraded {
		m.degraded.Store(1)
	} else {
		m.degraded.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TicksApplied    uint64    `json:"ticks_applied"`
	TicksIgnored    uint64    `json:"ticks_ignored"`
	SnapshotLoads   uint64    `json:"snapshot_loads"`
	RatioFetches    uint64    `json:"ratio_fetches"`
	RatioFailures   uint64    `json:"ratio_failures"`
	Reconnects      uint64    `json:"reconnects"`
	ErrorsTotal     uint64    `json:"errors_total"`
	StreamConnected bool      `json:"stream_connected"`
	Degraded        bool      `json:"degraded"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TicksApplied:    m.ticksApplied.Load(),
		TicksIgnored:    m.ticksIgnored.Load(),
		SnapshotLoads:   m.snapshotLoads.Load(),
		RatioFetches:    m.ratioFetches.Load(),
		RatioFailures:   m.ratioFailures.Load(),
		Reconnects:      m.reconnects.Load(),
		ErrorsTotal:     m.errorsTotal.Load(),
		StreamConnected: m.streamConnected.Load() == 1,
		Degraded:        m.degraded.Load() == 1,
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ticksApplied.Store(0)
	m.ticksIgnored.Store(0)
	m.snapshotLoads.Store(0)
	m.ratioFetches.Store(0)
	m.ratioFailures.Store(0)
	m.reconnects.Store(0)
	m.errorsTotal.Store(0)
	m.streamConnected.Store(0)
	m.degraded.Store(0)
}
