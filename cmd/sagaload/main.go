// Command sagaload drives a saga collection endpoint with a fixed pool of
// lock-stepped workers and reports what it measured.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/torosent/sagaload/internal/config"
	"github.com/torosent/sagaload/internal/httpclient"
	"github.com/torosent/sagaload/internal/logging"
	"github.com/torosent/sagaload/internal/metrics"
	"github.com/torosent/sagaload/internal/output"
	"github.com/torosent/sagaload/internal/runner"
	"github.com/torosent/sagaload/internal/threshold"
	"github.com/torosent/sagaload/internal/tracing"
)

const (
	progressInterval = time.Second
	tracingFlushWait = 5 * time.Second
)

var errThresholdsFailed = errors.New("one or more thresholds failed")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.SetGlobal(logger)
	defer logging.Sync()

	runID := ulid.Make().String()
	logger = logger.With(zap.String("run_id", runID))

	// No mid-run cancellation: the run always completes its planned requests.
	ctx := context.Background()

	tp, err := tracing.Init(ctx, cfg.Tracing, runID)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracingFlushWait)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("flushing spans failed", zap.Error(err))
		}
	}()

	target, err := httpclient.NewTarget(cfg.TargetURL, httpclient.NewClient(cfg.Timeout), cfg.Headers, httpclient.WithTracing(tp))
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	var progress *output.ProgressReporter

	opts := buildOptions(cfg, target, collector, logger)
	opts.AfterWarmUp = func(ctx context.Context) {
		if cfg.Mode == config.ModePostGet {
			logStoredCount(ctx, target, logger)
		}
		collector.Start()
		if progress != nil {
			progress.Start()
		}
	}

	r := runner.New(opts)
	if dropped := r.Dropped(); dropped > 0 {
		logger.Warn("total is not a multiple of concurrency; remainder will not be sent",
			zap.Int("total", cfg.Total),
			zap.Int("concurrency", cfg.Concurrency),
			zap.Int("dropped", dropped),
		)
	}
	if cfg.Progress {
		progress = output.NewProgressReporter(collector, r.Share()*cfg.Concurrency, progressInterval, stderr)
	}

	logger.Info("starting run",
		zap.String("target", cfg.TargetURL),
		zap.String("mode", string(cfg.Mode)),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Int("per_worker", r.Share()),
	)
	result, err := r.Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}
	logger.Debug("run finished", zap.Int64("completed", result.Total), zap.Int64("failed", result.Errors), zap.Duration("elapsed", result.Duration))

	reporter := output.Reporter{
		Out:    stdout,
		Format: string(cfg.Format),
		Dir:    cfg.OutputDir,
		Label:  cfg.Label,
		RunID:  runID,
	}
	rep, exportErr := reporter.Report(collector, result.Duration)
	if exportErr == nil {
		logger.Info("results exported", zap.String("path", rep.ExportPath), zap.Int("rows", len(rep.Rows)))
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(rep.Summary)
	if cfg.Format == config.FormatText {
		output.PrintThresholds(stdout, results)
	} else {
		output.PrintThresholds(stderr, results)
	}

	var htmlErr error
	if cfg.HTMLOutput != "" {
		htmlErr = writeHTMLReport(cfg, rep, results)
		if htmlErr == nil {
			logger.Info("HTML report written", zap.String("path", cfg.HTMLOutput))
		}
	}

	switch {
	case exportErr != nil:
		return exportErr
	case htmlErr != nil:
		return htmlErr
	case !threshold.AllPassed(results):
		return errThresholdsFailed
	}
	return nil
}

func writeHTMLReport(cfg *config.Config, rep output.Report, results []threshold.Result) error {
	f, err := os.Create(cfg.HTMLOutput)
	if err != nil {
		return fmt.Errorf("create HTML report: %w", err)
	}
	err = output.GenerateHTMLReport(f, rep, results, output.ReportMetadata{
		TargetURL:   cfg.TargetURL,
		Mode:        string(cfg.Mode),
		Concurrency: cfg.Concurrency,
		Requested:   cfg.Total,
	})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write HTML report: %w", err)
	}
	return nil
}
