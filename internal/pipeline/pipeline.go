package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/prefixdiff/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Do executes the step on the job. A returned error stops the pipeline
	// unless it was built WithContinueOnError.
	Do(ctx context.Context, job *model.FileJob) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// StepFunc adapts a function to the Step interface.
type StepFunc struct {
	name string
	fn   func(ctx context.Context, job *model.FileJob) error
}

// NewStepFunc creates a named Step from fn.
func NewStepFunc(name string, fn func(ctx context.Context, job *model.FileJob) error) *StepFunc {
	return &StepFunc{name: name, fn: fn}
}

// Do calls the wrapped function.
func (s *StepFunc) Do(ctx context.Context, job *model.FileJob) error {
	return s.fn(ctx, job)
}

// Name returns the step name.
func (s *StepFunc) Name() string {
	return s.name
}

// Pipeline executes steps in order on a single job.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError keeps executing steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run the remaining steps
// after a failure. The first error is still recorded on the job.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given steps and options.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: append([]Step(nil), steps...),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step. Step errors are recorded on the job.
func (p *Pipeline) Execute(ctx context.Context, job *model.FileJob) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"file", job.Name,
				"reason", ctx.Err(),
			)
			p.fail(job, ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"file", job.Name,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"file", job.Name,
				"error", err,
			)
			p.fail(job, err)
			if !p.continueOnError {
				return err
			}
			continue
		}

		job.PerformedSteps = append(job.PerformedSteps, step.Name())
	}

	return job.Error
}

// fail records the first error on the job.
func (p *Pipeline) fail(job *model.FileJob, err error) {
	if job.Error != nil {
		return
	}
	job.Error = err
	job.ErrorMessage = err.Error()
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
