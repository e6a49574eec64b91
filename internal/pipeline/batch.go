package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/prefixdiff/internal/model"
)

// DefaultConcurrency is the number of jobs run at once when not configured.
const DefaultConcurrency = 8

// BatchProcessor runs many jobs concurrently, each through a fresh Pipeline.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each job.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent jobs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs every job and returns them in input order.
// A failing job does not stop the others; its error stays on the job.
// The returned error is non-nil only when ctx was cancelled, in which case
// jobs that never started are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*model.FileJob) ([]*model.FileJob, error) {
	bp.logger.Debug("starting batch processing",
		"total_files", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	results := make([]*model.FileJob, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			// Each goroutine owns its slot.
			results[i] = job

			if err := bp.pipelineFactory().Execute(ctx, job); err != nil {
				bp.logger.Warn("file failed",
					"file", job.Name,
					"error", err,
				)
				return nil
			}

			bp.logger.Debug("file completed", "file", job.Name)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch processing complete",
		"total_files", len(jobs),
		"elapsed", time.Since(startTime),
	)

	return results, err
}
