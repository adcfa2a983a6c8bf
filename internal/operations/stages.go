package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"concretelab/internal/dataprocessing"
	apperrors "concretelab/internal/errors"
	"concretelab/internal/infrastructure"
	"concretelab/internal/validation"
	"concretelab/pkg/contracts/domain"
)

// ArtifactWriter persists a finished specimen report.
type ArtifactWriter interface {
	WriteSpecimen(ctx context.Context, report *domain.SpecimenReport) ([]domain.Artifact, error)
}

// LoadStage validates the specimen, reads its table and fills in the radius
// from the file's diameter row when none was configured.
type LoadStage struct {
	BaseStage
	loader    *dataprocessing.Loader
	files     *validation.FileValidator
	specimens *validation.SpecimenValidator
	metrics   *infrastructure.AnalysisMetrics
	logger    *slog.Logger
}

// NewLoadStage creates the load step. metrics may be nil.
func NewLoadStage(logger *slog.Logger, metrics *infrastructure.AnalysisMetrics) *LoadStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, "Load samples"),
		loader:    dataprocessing.NewLoader(logger),
		files:     validation.NewFileValidator(logger),
		specimens: validation.NewSpecimenValidator(),
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute implements Step
func (s *LoadStage) Execute(ctx context.Context, state *SpecimenState) error {
	if err := s.specimens.Validate(state.Config); err != nil {
		return err
	}
	if err := s.files.ValidateInputFile(state.Path); err != nil {
		return err
	}

	table, err := s.loader.Load(ctx, state.Path, state.Config)
	if err != nil {
		return err
	}
	s.metrics.RecordSamples(ctx, strings.ToLower(filepath.Ext(state.Path)), len(table.Samples))

	if state.Config.Radius == 0 {
		diameter, ok := table.MetadataFloat(dataprocessing.MetaDiameter)
		if !ok || diameter <= 0 {
			return apperrors.NewAppValidationError(
				fmt.Sprintf("radius not set and the file has no positive %q row", dataprocessing.MetaDiameter))
		}
		state.Config.Radius = diameter / 2
		s.logger.DebugContext(ctx, "radius taken from file",
			slog.String("specimen", state.Config.Name),
			slog.Float64("diameter", diameter))
	}

	state.Table = table
	return nil
}

// ReduceStage runs the reduction and assembles the report.
type ReduceStage struct {
	BaseStage
	reducer *dataprocessing.Reducer
}

// NewReduceStage creates the reduce step.
func NewReduceStage(logger *slog.Logger) *ReduceStage {
	return &ReduceStage{
		BaseStage: NewBaseStage(StageIDReduce, "Reduce stress-strain"),
		reducer:   dataprocessing.NewReducer(logger),
	}
}

// Execute implements Step
func (s *ReduceStage) Execute(ctx context.Context, state *SpecimenState) error {
	if state.Table == nil {
		return apperrors.NewAppError(apperrors.ErrTypeStorage, "no samples loaded", nil)
	}

	result, err := s.reducer.Reduce(ctx, state.Table.Samples, state.Config)
	if err != nil {
		return err
	}
	if v, ok := state.Table.MetadataFloat(dataprocessing.MetaBreakStress); ok {
		result.ReportedBreakStress = &v
	}

	report := &domain.SpecimenReport{Result: result}
	if state.Config.Mix != nil {
		proportions, err := state.Config.Mix.Proportions()
		if err != nil {
			return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid mix design", err)
		}
		report.Mix = &proportions
	}

	state.Report = report
	return nil
}

// ExportStage writes the report's output files.
type ExportStage struct {
	BaseStage
	writer ArtifactWriter
}

// NewExportStage creates the export step.
func NewExportStage(writer ArtifactWriter) *ExportStage {
	return &ExportStage{
		BaseStage: NewBaseStage(StageIDExport, "Export artifacts"),
		writer:    writer,
	}
}

// Execute implements Step
func (s *ExportStage) Execute(ctx context.Context, state *SpecimenState) error {
	if state.Report == nil {
		return apperrors.NewAppError(apperrors.ErrTypeStorage, "nothing to export", nil)
	}
	artifacts, err := s.writer.WriteSpecimen(ctx, state.Report)
	if err != nil {
		return err
	}
	state.Report.Artifacts = append(state.Report.Artifacts, artifacts...)
	return nil
}
