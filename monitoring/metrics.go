package monitoring

import (
	"sort"
	"sync"
	"time"
)

// Counter names recorded by the HTTP layer.
const (
	MetricRequests        = "http_requests"
	MetricPredictions     = "predictions"
	MetricBadRequests     = "bad_requests"
	MetricServerErrors    = "server_errors"
	MetricUnknownLocation = "unknown_location"
)

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	Counters     map[string]int64 `json:"counters"`
	Observations int64            `json:"observations"`
	AvgLatencyMs float64          `json:"avg_latency_ms"`
	MaxLatencyMs float64          `json:"max_latency_ms"`
	Uptime       string           `json:"uptime"`
	StartTime    time.Time        `json:"start_time"`
}

// MetricsCollector keeps in-memory counters and a latency summary.
type MetricsCollector struct {
	mu       sync.Mutex
	counters map[string]int64

	observations int64
	totalLatency time.Duration
	maxLatency   time.Duration

	startTime time.Time
}

// NewMetricsCollector starts the uptime clock.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:  make(map[string]int64),
		startTime: time.Now(),
	}
}

// Inc adds one to the named counter.
func (mc *MetricsCollector) Inc(name string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name]++
}

// ObserveLatency records one request duration.
func (mc *MetricsCollector) ObserveLatency(d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.observations++
	mc.totalLatency += d
	if d > mc.maxLatency {
		mc.maxLatency = d
	}
}

// Counter returns the current value of a counter.
func (mc *MetricsCollector) Counter(name string) int64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.counters[name]
}

// CounterNames returns the recorded counter names, sorted.
func (mc *MetricsCollector) CounterNames() []string {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	names := make([]string, 0, len(mc.counters))
	for name := range mc.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the current counters and latency summary.
func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	counters := make(map[string]int64, len(mc.counters))
	for name, v := range mc.counters {
		counters[name] = v
	}
	snap := Snapshot{
		Counters:     counters,
		Observations: mc.observations,
		MaxLatencyMs: float64(mc.maxLatency) / float64(time.Millisecond),
		Uptime:       time.Since(mc.startTime).Round(time.Second).String(),
		StartTime:    mc.startTime,
	}
	if mc.observations > 0 {
		snap.AvgLatencyMs = float64(mc.totalLatency) / float64(mc.observations) / float64(time.Millisecond)
	}
	return snap
}
