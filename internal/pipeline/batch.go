package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/auditrun"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// DefaultBatchConcurrency is the number of sites audited at once.
const DefaultBatchConcurrency = 2

// PipelineFactory builds the pipeline for one audit run.
type PipelineFactory func(run *auditrun.Run) *Pipeline

// BatchCallback receives each finished audit together with its run. run is
// nil when the target was not a valid URL.
type BatchCallback func(report *model.AuditReport, run *auditrun.Run, index int)

// BatchProcessor audits several sites concurrently. Every site gets its own
// run, pipeline and navigator, so nothing is shared between audits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each audit.
	pipelineFactory PipelineFactory

	// concurrency is the maximum number of concurrent audits.
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

// WithConcurrency sets the maximum number of concurrent audits.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory PipelineFactory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch audits targets concurrently and returns one report per
// target, in input order. Failed audits are reported, not returned as
// errors; the error is non-nil only when ctx was cancelled, in which case
// targets that never started have a nil report.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.AuditReport, error) {
	bp.logger.Info("starting batch processing",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	results := make([]*model.AuditReport, len(targets))

	err := bp.ProcessBatchWithCallback(ctx, targets, func(report *model.AuditReport, _ *auditrun.Run, index int) {
		// Each index is written by exactly one goroutine.
		results[index] = report
	})

	bp.logger.Info("batch processing complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessBatchWithCallback audits targets and calls callback for each
// finished audit, from the goroutine that ran it. The run has already
// ended when the callback is invoked.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, targets []string, callback BatchCallback) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("auditing site",
				"target", target,
				"index", i+1,
				"total", len(targets),
			)

			report, run := bp.audit(gctx, target)
			callback(report, run, i)

			// Failures are recorded in the report; keep auditing the rest.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// audit runs one target through a fresh pipeline.
func (bp *BatchProcessor) audit(ctx context.Context, target string) (*model.AuditReport, *auditrun.Run) {
	run, err := auditrun.Start(target)
	if err != nil {
		report := model.NewAuditReport("", target)
		report.Status = model.StatusFailed
		report.Error = err.Error()
		report.CompletedAt = time.Now()
		bp.logger.Warn("audit failed", "target", target, "error", err)
		return report, nil
	}
	defer run.End()

	report := run.NewReport()
	if err := bp.pipelineFactory(run).Execute(ctx, report); err != nil {
		bp.logger.Warn("audit failed",
			"target", report.Target,
			"error", err,
		)
		return report, run
	}

	bp.logger.Info("audit completed",
		"target", report.Target,
		"pages", len(report.Pages),
	)
	return report, run
}
