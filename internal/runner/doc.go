// Package runner provides the load run execution engine for sagaload.
//
// A run is a fixed pool of workers that all start together. Every worker is
// admitted to a rendezvous [Barrier] sized to the pool, and none of them issues
// a request until the last one has arrived. After the barrier each worker loops
// over its share of the run, timing every request and reporting the outcome to a
// [Recorder].
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		Concurrency:   10,
//		TotalRequests: 100,
//		Requester:     myRequester,
//		Recorder:      collector,
//	})
//	result, err := r.Run(ctx)
//
// # Shares
//
// Each worker runs TotalRequests / Concurrency iterations (integer division).
// The remainder is never issued; [Runner.Dropped] reports how many requests
// that is. A failed request is not retried and consumes one iteration.
//
// # Warm-up
//
// When [Options.WarmUp] is set, it is invoked Concurrency times sequentially
// before the measured window starts. The first failure aborts the run with
// [ErrWarmup].
//
// # Pacing
//
// A positive [Options.RatePerSecond] shares one limiter between all workers.
// If waiting on it fails (the context ended), the worker stops and Run returns
// the partial result with that error.
//
// # Timing
//
// The clock for a request starts right before [Requester.Do]. A requester that
// also implements [Preparer] is asked for a prepared request first, so body
// construction stays outside the measured latency.
//
// # Failures
//
// Request errors are recorded as failures and never stop the run. A worker
// panic is different: Run returns [ErrWorkerPanic] and no result.
package runner
