package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of concurrent sessions when none is
// configured.
const DefaultConcurrency = 4

// BatchProcessor handles concurrent processing of multiple pages.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each page.
	// Each page gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent sessions.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed page reports.
	// Access is synchronized via mutex.
	results []*model.PageReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent sessions.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor. pipelineFactory is
// called once per page so that no pipeline state is shared between
// sessions.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
		results:         make([]*model.PageReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs one session per target, at most concurrency at a
// time. Reports are returned in target order, including reports of pages
// that failed. The error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.PageReport, error) {
	bp.logger.Info("starting batch processing",
		"total_pages", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocated to keep target order.
	bp.results = make([]*model.PageReport, len(targets))

	err := bp.run(ctx, targets, func(report *model.PageReport, index int) {
		bp.mu.Lock()
		bp.results[index] = report
		bp.mu.Unlock()
	})

	bp.logger.Info("batch processing complete",
		"total_pages", len(targets),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback runs the batch and calls callback for each
// completed page with the index of its target. The callback is called
// from the goroutine that ran the page and must be safe for concurrent
// use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(report *model.PageReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_pages", len(targets),
		"concurrency", bp.concurrency,
	)
	return bp.run(ctx, targets, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, targets []string, done func(*model.PageReport, int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("scanning page",
				"target", target,
				"index", i+1,
				"total", len(targets),
			)

			job := NewJob(target)
			err := bp.pipelineFactory().Execute(ctx, job)
			if job.Report == nil {
				job.Report = model.NewPageReport(target, "")
			}
			done(job.Report, i)

			if err != nil {
				// Recorded in the report; other pages keep going.
				bp.logger.Warn("page failed",
					"target", target,
					"error", err,
				)
				return nil
			}

			bp.logger.Info("page completed",
				"target", target,
				"annotations", len(job.Report.Annotations),
			)
			return nil
		})
	}

	return g.Wait()
}
