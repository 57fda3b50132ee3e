package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/newsadvisor/internal/engine"
	"github.com/nao1215/newsadvisor/internal/loader"
	"github.com/nao1215/newsadvisor/internal/model"
)

// Job carries one page through the pipeline.
type Job struct {
	// Target is the page URL, file path or "-".
	Target string

	// PageURL overrides the page location of file and stdin targets.
	PageURL string

	// Page is set by LoadStep.
	Page *loader.Page

	// Session is set by SessionStep.
	Session *engine.Session

	// Report is set by ReportStep, or by the pipeline when a step fails.
	Report *model.PageReport

	// Performed lists the names of the steps that completed.
	Performed []string
}

// NewJob creates a job for target.
func NewJob(target string) *Job {
	return &Job{Target: target, Performed: make([]string, 0)}
}

// fail records err in the job report, creating one if no step did.
func (j *Job) fail(err error) {
	if j.Report == nil {
		switch {
		case j.Session != nil:
			j.Report = j.Session.Report()
		default:
			j.Report = model.NewPageReport(j.Target, "")
		}
	}
	j.Report.Error = err.Error()
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the job as left by the
// previous steps.
type Step interface {
	// Do executes the pipeline step. Returns an error if the step fails
	// critically.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, the default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors
// are recorded in the report, but subsequent steps still execute.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
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
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence. Cancellation is checked
// before each step; steps handle their own timeouts.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete. Errors are also recorded in job.Report.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			job.fail(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"target", job.Target,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"target", job.Target,
				"error", err,
			)

			job.fail(err)

			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"target", job.Target,
		)
		job.Performed = append(job.Performed, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
