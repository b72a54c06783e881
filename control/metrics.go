// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime counters for the relay loop. Written by the loop goroutine, read by
// anyone.

package control

import (
	"sync"
	"time"
)

// Metric names maintained by the server.
const (
	MetricAccepted       = "connections.accepted"
	MetricRejected       = "connections.rejected"
	MetricClosed         = "connections.closed"
	MetricActive         = "connections.active"
	MetricAcceptFailures = "accept.failures"
	MetricBytesIn        = "bytes.in"
	MetricBytesOut       = "bytes.out"
	MetricChunksIn       = "chunks.in"
	MetricChunksQueued   = "chunks.queued"
	MetricWriteFailures  = "write.failures"
	MetricCycles         = "loop.cycles"
)

// MetricsRegistry holds named integer counters and gauges.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]int64
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]int64),
	}
}

// Add increments a counter by delta.
func (mr *MetricsRegistry) Add(key string, delta int64) {
	mr.mu.Lock()
	mr.metrics[key] += delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Set sets or updates a gauge.
func (mr *MetricsRegistry) Set(key string, value int64) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Get returns the current value of key, zero when unset.
func (mr *MetricsRegistry) Get(key string) int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.metrics[key]
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]int64, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated returns when a metric last changed.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
