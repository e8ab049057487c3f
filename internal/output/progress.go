package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/sagaload/internal/metrics"
)

// ProgressReporter redraws a single status line while a run is in flight.
type ProgressReporter struct {
	collector *metrics.Collector
	expected  int
	interval  time.Duration
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
}

// NewProgressReporter creates a reporter that refreshes every interval.
// expected is the number of requests the run will issue.
func NewProgressReporter(collector *metrics.Collector, expected int, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		collector: collector,
		expected:  expected,
		interval:  interval,
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
	}
}

func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return
	}
	go p.run()
}

// Stop halts updates, draws the final line, and ends it with a newline.
// Safe to call when Start was never called.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fmt.Fprint(p.writer, p.line())
		case <-p.done:
			fmt.Fprintln(p.writer, p.line())
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	s := p.collector.Snapshot(p.collector.Elapsed())
	return fmt.Sprintf("\rCompleted: %d/%d | Successes: %d | Failures: %d | RPS: %.1f",
		s.Total, p.expected, s.Successful, s.Failed, s.ThroughputRPS)
}
