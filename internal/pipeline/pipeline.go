package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/linkscan/internal/model"
)

// Step is one per-visit side effect. Steps run in sequence on the
// crawl coordinator goroutine, one visit at a time.
type Step interface {
	// Do runs the step for one completed visit. An error marks the
	// step as failed for this visit only; it never stops the crawl.
	Do(ctx context.Context, v *model.Visit) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes an ordered list of steps for every reachable
// visit. It satisfies the engine's VisitSink.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty pipeline. Add steps with AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends steps in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepCount returns the number of configured steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Execute runs every step for one visit. Unreachable visits are
// skipped entirely: there is no body, screenshot, or image list to
// work with. Step errors are logged per step and swallowed; only
// context cancellation propagates.
func (p *Pipeline) Execute(ctx context.Context, v *model.Visit) error {
	if v.Unreachable {
		return nil
	}

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "url", v.URL)
			return ctx.Err()
		default:
		}

		if err := step.Do(ctx, v); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"url", v.URL,
				"error", err,
			)
			continue
		}
		p.logger.Debug("step completed", "step", step.Name(), "url", v.URL)
	}
	return nil
}
