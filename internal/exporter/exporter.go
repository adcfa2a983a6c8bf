package exporter

import (
	"context"
	"log/slog"

	"concretelab/internal/config"
	apperrors "concretelab/internal/errors"
	"concretelab/pkg/contracts/domain"
)

// ArtifactExporter writes the configured output files of specimens and
// batches into the output directory.
type ArtifactExporter struct {
	paths    *config.Paths
	options  config.AnalysisConfig
	charts   *ChartRenderer
	csv      *CSVWriter
	workbook *WorkbookWriter
	logger   *slog.Logger
}

// NewArtifactExporter creates an exporter. options selects which files are
// written and the plot size.
func NewArtifactExporter(paths *config.Paths, options config.AnalysisConfig, logger *slog.Logger) *ArtifactExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactExporter{
		paths:    paths,
		options:  options,
		charts:   NewChartRenderer(options.PlotWidth, options.PlotHeight),
		csv:      NewCSVWriter(logger),
		workbook: NewWorkbookWriter(logger),
		logger:   logger.With(slog.String("component", "exporter")),
	}
}

// Charts returns the renderer used for plot files.
func (e *ArtifactExporter) Charts() *ChartRenderer {
	return e.charts
}

// WriteSpecimen writes the plot and series file of one specimen.
func (e *ArtifactExporter) WriteSpecimen(ctx context.Context, report *domain.SpecimenReport) ([]domain.Artifact, error) {
	result := report.Result
	var artifacts []domain.Artifact

	if e.options.WritePlots {
		path := e.paths.GetPlotPath(result.Name)
		if err := e.charts.RenderFile(result, path); err != nil {
			return artifacts, apperrors.NewStorageError("failed to write plot", err).
				WithContext(apperrors.ContextPath, path)
		}
		artifacts = append(artifacts, domain.Artifact{Kind: domain.ArtifactPlot, Path: path})
	}

	if e.options.WriteSeriesCSV {
		path := e.paths.GetSeriesPath(result.Name)
		if err := e.csv.WriteSeries(path, result); err != nil {
			return artifacts, apperrors.NewStorageError("failed to write series", err).
				WithContext(apperrors.ContextPath, path)
		}
		artifacts = append(artifacts, domain.Artifact{Kind: domain.ArtifactSeries, Path: path})
	}

	for _, a := range artifacts {
		e.logger.InfoContext(ctx, "artifact written",
			slog.String("specimen", result.Name),
			slog.String("kind", string(a.Kind)),
			slog.String("path", a.Path))
	}
	return artifacts, nil
}

// WriteBatch writes the summary CSV and, when enabled, the results workbook.
func (e *ArtifactExporter) WriteBatch(ctx context.Context, outcomes []domain.SpecimenOutcome) ([]domain.Artifact, error) {
	var artifacts []domain.Artifact

	summary := e.paths.GetReportPath(config.SummaryCSVName)
	if err := e.csv.WriteSummary(summary, outcomes); err != nil {
		return artifacts, apperrors.NewStorageError("failed to write summary", err).
			WithContext(apperrors.ContextPath, summary)
	}
	artifacts = append(artifacts, domain.Artifact{Kind: domain.ArtifactSummary, Path: summary})

	if e.options.WriteWorkbook {
		path := e.paths.GetReportPath(config.WorkbookName)
		if err := e.workbook.WriteWorkbook(path, outcomes); err != nil {
			return artifacts, apperrors.NewStorageError("failed to write workbook", err).
				WithContext(apperrors.ContextPath, path)
		}
		artifacts = append(artifacts, domain.Artifact{Kind: domain.ArtifactWorkbook, Path: path})
	}

	e.logger.InfoContext(ctx, "batch artifacts written",
		slog.Int("specimens", len(outcomes)),
		slog.Int("artifacts", len(artifacts)))
	return artifacts, nil
}
