package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"
)

// Result captures execution summary.
type Result struct {
	Total    int64         // completed requests
	Errors   int64         // requests recorded as failures
	Duration time.Duration // from worker spawn to join, including barrier wait
}

// Runner coordinates a barrier-synchronized pool of workers.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Share returns the number of iterations each worker runs.
func (r *Runner) Share() int {
	return r.opt.TotalRequests / r.opt.Concurrency
}

// Dropped returns the number of requests lost to integer division of the total.
func (r *Runner) Dropped() int {
	return r.opt.TotalRequests - r.Share()*r.opt.Concurrency
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.opt.Requester == nil {
		return Result{}, errors.New("runner: requester is required")
	}
	if r.opt.Recorder == nil {
		return Result{}, errors.New("runner: recorder is required")
	}

	if err := r.warmUp(ctx); err != nil {
		return Result{}, err
	}
	if r.opt.AfterWarmUp != nil {
		r.opt.AfterWarmUp(ctx)
	}

	var limiter *rate.Limiter
	if r.opt.RatePerSecond > 0 {
		limiter = r.opt.LimiterFactory(r.opt.RatePerSecond)
		if limiter.Limit() != rate.Inf && limiter.Burst() < 1 {
			return Result{}, errors.New("runner: rate limiter burst must be >= 1")
		}
	}

	share := r.Share()
	barrier := NewBarrier(r.opt.Concurrency)
	var total, errs int64
	var paceOnce sync.Once
	var paceErr error

	var wg conc.WaitGroup
	start := time.Now()
	for i := 0; i < r.opt.Concurrency; i++ {
		worker := i
		wctx := withWorker(ctx, worker)
		wg.Go(func() {
			if r.opt.BeforeBarrier != nil {
				r.opt.BeforeBarrier(worker)
			}
			barrier.Wait()

			for n := 0; n < share; n++ {
				if limiter != nil {
					if err := limiter.Wait(wctx); err != nil {
						paceOnce.Do(func() { paceErr = err })
						return
					}
				}
				req, err := prepare(wctx, r.opt.Requester)
				var elapsed uint64
				if err == nil {
					began := time.Now()
					err = req.Do(wctx)
					elapsed = uint64(time.Since(began).Milliseconds())
				}
				if err != nil {
					r.opt.Recorder.RecordFailure(elapsed)
					atomic.AddInt64(&errs, 1)
				} else {
					r.opt.Recorder.RecordSuccess(elapsed)
				}
				atomic.AddInt64(&total, 1)
			}
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrWorkerPanic, recovered.AsError())
	}

	res := Result{
		Total:    atomic.LoadInt64(&total),
		Errors:   atomic.LoadInt64(&errs),
		Duration: time.Since(start),
	}
	if paceErr != nil {
		return res, fmt.Errorf("runner: pacing stopped workers: %w", paceErr)
	}
	return res, nil
}

// prepare returns the request to time. A preparation error is recorded as a
// failure with zero latency.
func prepare(ctx context.Context, req Requester) (Requester, error) {
	p, ok := req.(Preparer)
	if !ok {
		return req, nil
	}
	return p.Prepare(ctx)
}

// warmUp issues the seeding requests one after another. There is no retry.
func (r *Runner) warmUp(ctx context.Context) error {
	if r.opt.WarmUp == nil {
		return nil
	}
	for i := 0; i < r.opt.Concurrency; i++ {
		if err := r.opt.WarmUp.Do(ctx); err != nil {
			return fmt.Errorf("%w: request %d of %d: %w", ErrWarmup, i+1, r.opt.Concurrency, err)
		}
	}
	return nil
}
