package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// Step is one stage of an audit. Steps share the report: each one reads
// what earlier stages recorded and adds its own results.
type Step interface {
	// Do runs the stage. Problems found on the audited site become
	// issues; an error means the stage itself could not do its work.
	Do(ctx context.Context, report *model.AuditReport) error

	// Name identifies the stage in logs and in PerformedSteps.
	Name() string
}

// Pipeline runs audit stages in order.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
	now             func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running later stages after one fails. The
// audit still ends as failed with the first error.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a stage.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends stages in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence and moves the report from
// running to completed or failed. Cancellation is checked before each step;
// steps handle their own timeouts.
//
// Returns the first error encountered if continueOnError is false. With
// continueOnError it returns the first error after every step has run.
func (p *Pipeline) Execute(ctx context.Context, report *model.AuditReport) error {
	report.Status = model.StatusRunning

	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			report.Cancelled = true
			p.finish(report, err)
			return err
		}

		p.logger.Info("audit stage started", "step", step.Name(), "target", report.Target)

		err := step.Do(ctx, report)
		report.PerformedSteps = append(report.PerformedSteps, step.Name())
		if err == nil {
			p.logger.Debug("audit stage done", "step", step.Name(), "target", report.Target)
			continue
		}

		p.logger.Error("step failed",
			"step", step.Name(),
			"target", report.Target,
			"error", err,
		)
		if ctx.Err() != nil {
			report.Cancelled = true
		}
		if firstErr == nil {
			firstErr = err
		}
		if !p.continueOnError {
			break
		}
	}

	p.finish(report, firstErr)
	return firstErr
}

// finish records the outcome of an execution.
func (p *Pipeline) finish(report *model.AuditReport, err error) {
	report.CompletedAt = p.now()
	if err != nil {
		report.Status = model.StatusFailed
		if report.Error == "" {
			report.Error = err.Error()
		}
		return
	}
	report.Status = model.StatusCompleted
}

// StepCount returns the number of stages.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the stage names in run order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
