package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/torosent/sagaload/internal/config"
	"github.com/torosent/sagaload/internal/httpclient"
	"github.com/torosent/sagaload/internal/metrics"
	"github.com/torosent/sagaload/internal/payload"
	"github.com/torosent/sagaload/internal/runner"
)

// buildOptions maps the configured mode onto runner options:
//
//	post      every request creates a freshly generated saga
//	get       every request lists the collection
//	post-get  seed one saga per worker, then every request lists
func buildOptions(cfg *config.Config, target *httpclient.Target, collector *metrics.Collector, logger *zap.Logger) runner.Options {
	opts := runner.Options{
		Concurrency:   cfg.Concurrency,
		TotalRequests: cfg.Total,
		RatePerSecond: cfg.Rate,
		Recorder:      collector,
	}

	switch cfg.Mode {
	case config.ModeGet:
		opts.Requester = target.ListRequester()
	case config.ModePostGet:
		opts.WarmUp = target.SeedRequester(payload.Generate())
		opts.Requester = target.ListRequester()
	default:
		opts.Requester = target.CreateRequester()
	}

	if cfg.LogErrors {
		opts.Requester = runner.WithLogging(opts.Requester, &zapFailureLogger{logger: logger})
	}
	return opts
}

// logStoredCount reports how many records the target holds after seeding.
// A failure here is not fatal.
func logStoredCount(ctx context.Context, target *httpclient.Target, logger *zap.Logger) {
	n, err := target.List(ctx)
	if err != nil {
		logger.Warn("listing seeded sagas failed", zap.Error(err))
		return
	}
	logger.Info("warm-up complete", zap.Int("stored_sagas", n))
}

type zapFailureLogger struct {
	logger *zap.Logger
}

func (l *zapFailureLogger) LogFailure(ctx context.Context, err error) {
	if err == nil {
		return
	}
	fields := []zap.Field{zap.Error(err)}
	if worker, ok := runner.WorkerFromContext(ctx); ok {
		fields = append(fields, zap.Int("worker", worker))
	}
	if code := statusCodeFromError(err); code != 0 {
		fields = append(fields, zap.Int("status", code))
	}
	l.logger.Warn("request failed", fields...)
}

// statusCodeFromError returns the HTTP status carried by err, or 0 for
// transport failures.
func statusCodeFromError(err error) int {
	var httpErr *runner.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
