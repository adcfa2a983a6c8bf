package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"concretelab/internal/config"
	apperrors "concretelab/internal/errors"
	"concretelab/internal/exporter"
	"concretelab/internal/infrastructure"
	"concretelab/internal/operations"
	"concretelab/pkg/contracts/domain"
)

// AnalysisService reduces specimens and writes their artifacts.
type AnalysisService struct {
	options  config.AnalysisConfig
	exporter *exporter.ArtifactExporter
	charts   *exporter.ChartRenderer
	tracer   trace.Tracer
	metrics  *infrastructure.AnalysisMetrics
	logger   *slog.Logger

	full   *operations.Pipeline
	reduce *operations.Pipeline
}

// AnalysisOption configures an AnalysisService
type AnalysisOption func(*AnalysisService)

// WithExporter enables the export step and batch reports.
func WithExporter(e *exporter.ArtifactExporter) AnalysisOption {
	return func(s *AnalysisService) { s.exporter = e }
}

// WithTracer traces every specimen and pipeline step.
func WithTracer(t trace.Tracer) AnalysisOption {
	return func(s *AnalysisService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMetrics records outcomes and durations.
func WithMetrics(m *infrastructure.AnalysisMetrics) AnalysisOption {
	return func(s *AnalysisService) { s.metrics = m }
}

// BatchReport is the outcome of AnalyzeBatch.
type BatchReport struct {
	Outcomes  []domain.SpecimenOutcome `json:"outcomes"`
	Artifacts []domain.Artifact        `json:"artifacts,omitempty"`
	Failed    int                      `json:"failed"`
}

// NewAnalysisService creates the service. Without WithExporter nothing is
// written to disk.
func NewAnalysisService(options config.AnalysisConfig, logger *slog.Logger, opts ...AnalysisOption) (*AnalysisService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AnalysisService{
		options: options,
		tracer:  tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName),
		logger:  logger.With(slog.String("service", "analysis")),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.exporter != nil {
		s.charts = s.exporter.Charts()
	} else {
		s.charts = exporter.NewChartRenderer(options.PlotWidth, options.PlotHeight)
	}

	load := operations.NewLoadStage(logger, s.metrics)
	reduce := operations.NewReduceStage(logger)

	var err error
	s.reduce, err = operations.NewPipeline(logger, load, reduce)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	steps := []operations.Step{load, reduce}
	if s.exporter != nil {
		steps = append(steps, operations.NewExportStage(s.exporter))
	}
	s.full, err = operations.NewPipeline(logger, steps...)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	for _, p := range []*operations.Pipeline{s.reduce, s.full} {
		p.WithTracer(s.tracer).WithMetrics(s.metrics)
	}
	return s, nil
}

// Analyze reduces the specimen stored at path and writes its artifacts.
func (s *AnalysisService) Analyze(ctx context.Context, path string, cfg domain.SpecimenConfig) (*domain.SpecimenReport, error) {
	state, err := s.run(ctx, s.full, path, cfg)
	if err != nil {
		return nil, err
	}
	return state.Report, nil
}

// AnalyzeBatch analyzes every specimen in order, reading each from its
// File. A failing specimen is recorded and the batch moves on. The summary
// files cover all specimens, failed ones included.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, specimens []domain.SpecimenConfig) (*BatchReport, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.batch",
		trace.WithAttributes(attribute.Int("specimens", len(specimens))))
	defer span.End()

	report := &BatchReport{Outcomes: make([]domain.SpecimenOutcome, 0, len(specimens))}
	for _, cfg := range specimens {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome := domain.SpecimenOutcome{Name: cfg.Name}
		outcome.Report, outcome.Err = s.Analyze(ctx, cfg.File, cfg)
		if outcome.Failed() {
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if s.exporter != nil {
		artifacts, err := s.exporter.WriteBatch(ctx, report.Outcomes)
		report.Artifacts = artifacts
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return report, err
		}
	}

	span.SetAttributes(attribute.Int("failed", report.Failed))
	s.logger.InfoContext(ctx, "batch completed",
		slog.Int("specimens", len(specimens)),
		slog.Int("failed", report.Failed))
	return report, nil
}

// Render reduces the specimen at path and writes only its PNG plot to w.
func (s *AnalysisService) Render(ctx context.Context, path string, cfg domain.SpecimenConfig, w io.Writer) (*domain.SpecimenReport, error) {
	state, err := s.run(ctx, s.reduce, path, cfg)
	if err != nil {
		return nil, err
	}

	if err := s.charts.Render(state.Report.Result, w); err != nil {
		err = apperrors.Annotate(apperrors.NewStorageError("failed to render plot", err), cfg.Name, "render")
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	return state.Report, nil
}

func (s *AnalysisService) run(ctx context.Context, p *operations.Pipeline, path string, cfg domain.SpecimenConfig) (*operations.SpecimenState, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "analysis.specimen",
		trace.WithAttributes(
			attribute.String("specimen", cfg.Name),
			attribute.String("file", path),
		))
	defer span.End()

	start := time.Now()
	state := operations.NewSpecimenState(path, cfg)
	err := p.Run(ctx, state)
	duration := time.Since(start)

	if err != nil {
		kind, stage := failureLabels(err)
		s.metrics.RecordSpecimen(ctx, duration, kind, stage)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "specimen analysis failed",
			slog.String("specimen", cfg.Name),
			slog.String("file", path),
			slog.String("kind", kind),
			slog.String("stage", stage),
			slog.String("error", err.Error()))
		return nil, err
	}

	result := state.Report.Result
	s.metrics.RecordSpecimen(ctx, duration, "", "")
	span.SetAttributes(
		attribute.Float64("ultimate_strength", result.UltimateStrength),
		attribute.Float64("youngs_modulus", result.YoungsModulus),
	)
	span.SetStatus(codes.Ok, "")
	s.logger.InfoContext(ctx, "specimen analyzed",
		slog.String("specimen", cfg.Name),
		slog.Float64("ultimate_strength", result.UltimateStrength),
		slog.Float64("youngs_modulus", result.YoungsModulus),
		slog.Int("artifacts", len(state.Report.Artifacts)),
		slog.Duration("duration", duration))
	return state, nil
}

// failureLabels extracts the error kind and failing stage for metrics.
func failureLabels(err error) (kind, stage string) {
	kind = "UNKNOWN"
	if t, ok := apperrors.TypeOf(err); ok {
		kind = string(t)
	}
	stage = "unknown"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if v, ok := appErr.Context[apperrors.ContextStage].(string); ok {
			stage = v
		}
	}
	return kind, stage
}
