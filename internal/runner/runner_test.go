package runner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/sagaload/internal/metrics"
	"github.com/torosent/sagaload/internal/runner"
)

// fakeRequester simulates performing a request with fixed latency.
type fakeRequester struct {
	latency   time.Duration
	calls     *int64
	failEvery int64 // if >0, every n-th call fails
}

func (f *fakeRequester) Do(ctx context.Context) error {
	n := atomic.AddInt64(f.calls, 1)
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	if f.failEvery > 0 && n%f.failEvery == 0 {
		return &runner.HTTPError{StatusCode: 503, Body: "unavailable"}
	}
	return nil
}

func TestRunnerSplitsTotalIntoEqualShares(t *testing.T) {
	var calls int64
	collector := metrics.NewCollector()
	r := runner.New(runner.Options{
		Concurrency:   4,
		TotalRequests: 25,
		Requester:     &fakeRequester{calls: &calls},
		Recorder:      collector,
	})
	if r.Share() != 6 {
		t.Fatalf("expected share 6, got %d", r.Share())
	}
	if r.Dropped() != 1 {
		t.Fatalf("expected 1 dropped request, got %d", r.Dropped())
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 24 {
		t.Fatalf("expected total 24, got %d", res.Total)
	}
	if calls != 24 {
		t.Fatalf("expected requester called 24 times, got %d", calls)
	}
	if collector.Completed() != 24 {
		t.Fatalf("expected 24 recorded outcomes, got %d", collector.Completed())
	}
	if res.Duration <= 0 {
		t.Fatalf("result duration not recorded")
	}
}

func TestRunnerEachWorkerRunsItsShare(t *testing.T) {
	var mu sync.Mutex
	perWorker := map[int]int{}

	r := runner.New(runner.Options{
		Concurrency:   10,
		TotalRequests: 107,
		Recorder:      metrics.NewCollector(),
		Requester: runner.RequesterFunc(func(ctx context.Context) error {
			id, ok := runner.WorkerFromContext(ctx)
			if !ok {
				t.Error("worker id missing from request context")
			}
			mu.Lock()
			perWorker[id]++
			mu.Unlock()
			return nil
		}),
	})

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 100 {
		t.Fatalf("expected 100 completed requests, got %d", res.Total)
	}
	if len(perWorker) != 10 {
		t.Fatalf("expected 10 workers, got %d", len(perWorker))
	}
	for id, n := range perWorker {
		if n != 10 {
			t.Errorf("worker %d ran %d iterations, want 10", id, n)
		}
	}
}

func TestRunnerRecordsFailuresWithoutStopping(t *testing.T) {
	var calls int64
	collector := metrics.NewCollector()
	r := runner.New(runner.Options{
		Concurrency:   5,
		TotalRequests: 50,
		Requester:     &fakeRequester{calls: &calls, failEvery: 5},
		Recorder:      collector,
	})

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 50 {
		t.Fatalf("expected total 50, got %d", res.Total)
	}
	if res.Errors != 10 {
		t.Fatalf("expected 10 errors, got %d", res.Errors)
	}
	s := collector.Snapshot(res.Duration)
	if s.Successful != 40 || s.Failed != 10 {
		t.Fatalf("expected 40/10, got %d/%d", s.Successful, s.Failed)
	}
}

func TestRunnerBarrierHoldsWorkersForSlowStarter(t *testing.T) {
	const delay = 100 * time.Millisecond
	var slowArrived atomic.Int64
	var mu sync.Mutex
	var firstCalls []time.Time

	r := runner.New(runner.Options{
		Concurrency:   5,
		TotalRequests: 5,
		Recorder:      metrics.NewCollector(),
		BeforeBarrier: func(worker int) {
			if worker == 0 {
				time.Sleep(delay)
				slowArrived.Store(time.Now().UnixNano())
			}
		},
		Requester: runner.RequesterFunc(func(ctx context.Context) error {
			mu.Lock()
			firstCalls = append(firstCalls, time.Now())
			mu.Unlock()
			return nil
		}),
	})

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(firstCalls) != 5 {
		t.Fatalf("expected 5 calls, got %d", len(firstCalls))
	}
	arrived := slowArrived.Load()
	for i, at := range firstCalls {
		if at.UnixNano() < arrived {
			t.Fatalf("call %d started before the slow worker reached the barrier", i)
		}
	}
	if res.Duration < delay {
		t.Fatalf("duration %s should include barrier wait of %s", res.Duration, delay)
	}
}

func TestRunnerWarmUpRunsBeforeTimedRequests(t *testing.T) {
	var seeds, calls int64
	var seededBeforeFirstCall int64 = -1

	r := runner.New(runner.Options{
		Concurrency:   3,
		TotalRequests: 9,
		Recorder:      metrics.NewCollector(),
		WarmUp: runner.RequesterFunc(func(ctx context.Context) error {
			atomic.AddInt64(&seeds, 1)
			return nil
		}),
		Requester: runner.RequesterFunc(func(ctx context.Context) error {
			if atomic.AddInt64(&calls, 1) == 1 {
				atomic.StoreInt64(&seededBeforeFirstCall, atomic.LoadInt64(&seeds))
			}
			return nil
		}),
	})

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seeds != 3 {
		t.Fatalf("expected 3 warm-up requests, got %d", seeds)
	}
	if seededBeforeFirstCall != 3 {
		t.Fatalf("expected warm-up to finish before timed requests, saw %d seeds", seededBeforeFirstCall)
	}
}

func TestRunnerAfterWarmUpHookRunsBetweenPhases(t *testing.T) {
	var seeds, calls, hookSeeds, hookCalls int64
	hooked := 0

	r := runner.New(runner.Options{
		Concurrency:   2,
		TotalRequests: 4,
		Recorder:      metrics.NewCollector(),
		WarmUp: runner.RequesterFunc(func(ctx context.Context) error {
			atomic.AddInt64(&seeds, 1)
			return nil
		}),
		AfterWarmUp: func(ctx context.Context) {
			hooked++
			hookSeeds = atomic.LoadInt64(&seeds)
			hookCalls = atomic.LoadInt64(&calls)
		},
		Requester: runner.RequesterFunc(func(ctx context.Context) error {
			atomic.AddInt64(&calls, 1)
			return nil
		}),
	})

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if hooked != 1 {
		t.Fatalf("expected hook to run once, ran %d times", hooked)
	}
	if hookSeeds != 2 || hookCalls != 0 {
		t.Fatalf("hook saw %d seeds and %d timed calls, want 2 and 0", hookSeeds, hookCalls)
	}
}

func TestRunnerWarmUpFailureAbortsRun(t *testing.T) {
	var seeds, calls int64
	collector := metrics.NewCollector()
	boom := errors.New("connection refused")

	r := runner.New(runner.Options{
		Concurrency:   4,
		TotalRequests: 40,
		Recorder:      collector,
		WarmUp: runner.RequesterFunc(func(ctx context.Context) error {
			if atomic.AddInt64(&seeds, 1) == 2 {
				return boom
			}
			return nil
		}),
		Requester: &fakeRequester{calls: &calls},
	})

	_, err := r.Run(context.Background())
	if !errors.Is(err, runner.ErrWarmup) {
		t.Fatalf("expected ErrWarmup, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if seeds != 2 {
		t.Fatalf("expected warm-up to stop at the failing request, got %d", seeds)
	}
	if calls != 0 || collector.Completed() != 0 {
		t.Fatalf("no timed request should run after warm-up failure")
	}
}

func TestRunnerPropagatesWorkerPanic(t *testing.T) {
	r := runner.New(runner.Options{
		Concurrency:   3,
		TotalRequests: 3,
		Recorder:      metrics.NewCollector(),
		Requester: runner.RequesterFunc(func(ctx context.Context) error {
			panic("requester exploded")
		}),
	})

	res, err := r.Run(context.Background())
	if !errors.Is(err, runner.ErrWorkerPanic) {
		t.Fatalf("expected ErrWorkerPanic, got %v", err)
	}
	if res != (runner.Result{}) {
		t.Fatalf("expected no partial result, got %+v", res)
	}
}

func TestRunnerRequiresRequesterAndRecorder(t *testing.T) {
	if _, err := runner.New(runner.Options{Recorder: metrics.NewCollector()}).Run(context.Background()); err == nil {
		t.Fatal("expected error without requester")
	}
	var calls int64
	if _, err := runner.New(runner.Options{Requester: &fakeRequester{calls: &calls}}).Run(context.Background()); err == nil {
		t.Fatal("expected error without recorder")
	}
}

func TestRateLimiterWithoutBurstIsRejected(t *testing.T) {
	var calls int64
	r := runner.New(runner.Options{
		Concurrency:    2,
		TotalRequests:  4,
		RatePerSecond:  10,
		Requester:      &fakeRequester{calls: &calls},
		Recorder:       metrics.NewCollector(),
		LimiterFactory: func(rps int) *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), 0) },
	})
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error for a limiter that never admits a request")
	}
	if calls != 0 {
		t.Fatalf("no request should be sent, got %d", calls)
	}
}

func TestRateLimiterStopsWorkersWhenContextEnds(t *testing.T) {
	var calls int64
	collector := metrics.NewCollector()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.New(runner.Options{
		Concurrency:   2,
		TotalRequests: 4,
		RatePerSecond: 10,
		Requester:     &fakeRequester{calls: &calls},
		Recorder:      collector,
	})
	res, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if calls != 0 || res.Total != 0 || collector.Completed() != 0 {
		t.Fatalf("paced workers should stop before sending: calls=%d total=%d", calls, res.Total)
	}
}

// slowPreparer takes prepDelay to build each request, which is then sent instantly.
type slowPreparer struct {
	prepDelay time.Duration
	prepErr   error
	sent      *int64
}

func (s *slowPreparer) Prepare(ctx context.Context) (runner.Requester, error) {
	time.Sleep(s.prepDelay)
	if s.prepErr != nil {
		return nil, s.prepErr
	}
	return runner.RequesterFunc(func(ctx context.Context) error {
		atomic.AddInt64(s.sent, 1)
		return nil
	}), nil
}

func (s *slowPreparer) Do(ctx context.Context) error {
	req, err := s.Prepare(ctx)
	if err != nil {
		return err
	}
	return req.Do(ctx)
}

func TestRunnerExcludesPreparationFromLatency(t *testing.T) {
	var sent int64
	collector := metrics.NewCollector()
	r := runner.New(runner.Options{
		Concurrency:   2,
		TotalRequests: 4,
		Requester:     &slowPreparer{prepDelay: 40 * time.Millisecond, sent: &sent},
		Recorder:      collector,
	})
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sent != 4 {
		t.Fatalf("expected 4 prepared requests sent, got %d", sent)
	}
	for _, ms := range collector.Successes() {
		if ms >= 40 {
			t.Fatalf("latency %dms includes preparation time", ms)
		}
	}
}

func TestRunnerRecordsPreparationErrorAsFailure(t *testing.T) {
	var sent int64
	collector := metrics.NewCollector()
	r := runner.New(runner.Options{
		Concurrency:   1,
		TotalRequests: 2,
		Requester:     &slowPreparer{prepErr: errors.New("encode payload"), sent: &sent},
		Recorder:      collector,
	})
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Errors != 2 || sent != 0 {
		t.Fatalf("errors=%d sent=%d, want 2 and 0", res.Errors, sent)
	}
	if got := collector.Failures(); len(got) != 2 || got[0] != 0 {
		t.Fatalf("failures = %v, want two zero-latency entries", got)
	}
}

// TestRateLimiterPacesRequests ensures the shared limiter spaces out requests.
func TestRateLimiterPacesRequests(t *testing.T) {
	var calls int64
	r := runner.New(runner.Options{
		Concurrency:    2,
		TotalRequests:  10,
		RatePerSecond:  50,
		Requester:      &fakeRequester{calls: &calls},
		Recorder:       metrics.NewCollector(),
		LimiterFactory: func(rps int) *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), 1) },
	})
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 10 requests at 50 rps with burst 1 need at least ~180ms.
	if res.Duration < 150*time.Millisecond {
		t.Fatalf("rate limiter not applied: %s", res.Duration)
	}
	if calls != 10 {
		t.Fatalf("expected 10 calls, got %d", calls)
	}
}
