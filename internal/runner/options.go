package runner

import (
	"context"

	"golang.org/x/time/rate"
)

// Requester abstracts executing a single request operation.
// Implementations return an error for failed requests.
type Requester interface {
	Do(ctx context.Context) error
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(ctx context.Context) error

func (f RequesterFunc) Do(ctx context.Context) error { return f(ctx) }

// Preparer is implemented by requesters that can build the next request ahead
// of time. The returned Requester sends it and is the only part that is timed.
type Preparer interface {
	Prepare(ctx context.Context) (Requester, error)
}

// Recorder receives the outcome of every timed request.
type Recorder interface {
	RecordSuccess(latencyMs uint64)
	RecordFailure(latencyMs uint64)
}

// Options configure the Runner.
type Options struct {
	Concurrency    int                         // number of workers, also the barrier size
	TotalRequests  int                         // split into Concurrency equal shares
	RatePerSecond  int                         // pacing across all workers (0 means unlimited)
	Requester      Requester                   // timed request executor (required)
	Recorder       Recorder                    // outcome sink (required)
	WarmUp         Requester                   // optional seeding request, run Concurrency times before timing
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests

	// AfterWarmUp runs once warm-up has succeeded, before any worker is spawned.
	AfterWarmUp func(ctx context.Context)
	// BeforeBarrier runs on the worker goroutine right before it waits on the barrier.
	BeforeBarrier func(worker int)
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.TotalRequests < 0 {
		o.TotalRequests = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
