package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	apperrors "concretelab/internal/errors"
	"concretelab/internal/infrastructure"
)

// Pipeline runs its steps in order for one specimen and stops at the first
// failure.
type Pipeline struct {
	steps   []Step
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.AnalysisMetrics
}

// NewPipeline creates a pipeline. Step IDs must be unique.
func NewPipeline(logger *slog.Logger, steps ...Step) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		if step == nil {
			return nil, fmt.Errorf("nil step")
		}
		if seen[step.ID()] {
			return nil, fmt.Errorf("duplicate step %q", step.ID())
		}
		seen[step.ID()] = true
	}
	return &Pipeline{
		steps:  steps,
		logger: logger.With(slog.String("component", "pipeline")),
		tracer: tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName),
	}, nil
}

// WithTracer wraps each step in a span from tracer.
func (p *Pipeline) WithTracer(tracer trace.Tracer) *Pipeline {
	if tracer != nil {
		p.tracer = tracer
	}
	return p
}

// WithMetrics records per-step durations.
func (p *Pipeline) WithMetrics(metrics *infrastructure.AnalysisMetrics) *Pipeline {
	p.metrics = metrics
	return p
}

// Steps returns the steps in execution order
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Run executes every step against state. A returned error carries the
// specimen name and the failing step ID.
func (p *Pipeline) Run(ctx context.Context, state *SpecimenState) error {
	name := state.Config.Name
	state.Start()

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			err = apperrors.Annotate(err, name, step.ID())
			state.Fail(err)
			return err
		}

		if err := p.runStep(ctx, step, state); err != nil {
			err = apperrors.Annotate(err, name, step.ID())
			state.Fail(err)

			for _, rest := range p.steps[i+1:] {
				skipped := NewStepState(rest.ID(), rest.Name())
				skipped.Skip("previous step failed")
				state.setStep(skipped)
			}

			p.logger.WarnContext(ctx, "specimen failed",
				slog.String("specimen", name),
				slog.String("stage", step.ID()),
				slog.String("error", err.Error()))
			return err
		}
	}

	state.Complete()
	p.logger.DebugContext(ctx, "specimen completed",
		slog.String("specimen", name),
		slog.Duration("duration", state.Duration()))
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, state *SpecimenState) error {
	stepState := NewStepState(step.ID(), step.Name())
	state.setStep(stepState)

	ctx, span := p.tracer.Start(ctx, "stage."+step.ID(),
		trace.WithAttributes(
			attribute.String("specimen", state.Config.Name),
			attribute.String("stage", step.ID()),
		))
	defer span.End()

	stepState.Start()
	start := time.Now()
	err := step.Execute(ctx, state)
	p.metrics.RecordStage(ctx, step.ID(), time.Since(start), err == nil)

	if err != nil {
		stepState.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	stepState.Complete()
	span.SetStatus(codes.Ok, "")
	return nil
}
