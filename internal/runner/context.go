package runner

import "context"

type workerKey struct{}

// WorkerFromContext returns the index of the worker issuing the request.
func WorkerFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(workerKey{}).(int)
	return id, ok
}

func withWorker(ctx context.Context, worker int) context.Context {
	return context.WithValue(ctx, workerKey{}, worker)
}
