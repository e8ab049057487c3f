package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records per-request outcomes in a thread-safe manner.
type Collector struct {
	mu        sync.Mutex
	hist      *hdrhistogram.Histogram
	successes []uint64
	failures  []uint64
	sumMs     uint64
	start     time.Time
}

// Summary is the derived view of a finished run.
type Summary struct {
	RunID             string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Total             int64         `json:"total" yaml:"total"`
	Successful        int64         `json:"successful" yaml:"successful"`
	Failed            int64         `json:"failed" yaml:"failed"`
	Duration          time.Duration `json:"-" yaml:"-"`
	DurationSeconds   float64       `json:"duration_s" yaml:"duration_s"`
	AvgResponseTimeMs float64       `json:"avg_response_time_ms" yaml:"avg_response_time_ms"`
	ThroughputRPS     float64       `json:"throughput_rps" yaml:"throughput_rps"`

	// Latency distribution of successful requests.
	MinLatencyMs float64 `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms" yaml:"max_latency_ms"`
	P50LatencyMs float64 `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P90LatencyMs float64 `json:"p90_latency_ms" yaml:"p90_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms" yaml:"p99_latency_ms"`
}

func NewCollector() *Collector {
	// Track latencies up to one hour with 3 significant figures.
	h := hdrhistogram.New(1, 3_600_000, 3)
	return &Collector{
		hist:  h,
		start: time.Now(),
	}
}

// Start marks the beginning of the measured window for live progress output.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Elapsed returns the time since Start.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// RecordSuccess appends a successful request latency and adds it to the running sum.
func (c *Collector) RecordSuccess(latencyMs uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.successes = append(c.successes, latencyMs)
	c.sumMs += latencyMs

	v := int64(latencyMs)
	if v > c.hist.HighestTrackableValue() {
		v = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(v)
}

// RecordFailure appends a failed request latency. It does not touch the running sum.
func (c *Collector) RecordFailure(latencyMs uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, latencyMs)
}

// Completed returns the number of outcomes recorded so far.
func (c *Collector) Completed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.successes) + len(c.failures))
}

// Successes returns a copy of the successful latencies in recorded order.
func (c *Collector) Successes() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.successes...)
}

// Failures returns a copy of the failed latencies in recorded order.
func (c *Collector) Failures() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.failures...)
}

// Snapshot computes the run summary for the given elapsed wall time.
// It does not modify the collector, so repeated calls with the same elapsed
// value return identical summaries.
func (c *Collector) Snapshot(elapsed time.Duration) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	successful := int64(len(c.successes))
	failed := int64(len(c.failures))
	s := Summary{
		Total:           successful + failed,
		Successful:      successful,
		Failed:          failed,
		Duration:        elapsed,
		DurationSeconds: elapsed.Seconds(),
	}

	if successful > 0 {
		s.AvgResponseTimeMs = float64(c.sumMs) / float64(successful)
	}
	if elapsed > 0 {
		s.ThroughputRPS = float64(successful) / elapsed.Seconds()
	}

	if c.hist.TotalCount() > 0 {
		s.MinLatencyMs = float64(c.hist.Min())
		s.MaxLatencyMs = float64(c.hist.Max())
		s.P50LatencyMs = float64(c.hist.ValueAtQuantile(50))
		s.P90LatencyMs = float64(c.hist.ValueAtQuantile(90))
		s.P99LatencyMs = float64(c.hist.ValueAtQuantile(99))
	}

	return s
}
