package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	apperrors "concretelab/internal/errors"
	"concretelab/pkg/contracts/domain"
)

// KipsToPounds converts load in kips to pounds-force.
const KipsToPounds = 1000.0

// Reducer turns raw force/displacement samples into a stress-strain result.
// It holds no per-specimen state and is safe to reuse.
type Reducer struct {
	logger *slog.Logger
}

// NewReducer creates a reducer. A nil logger falls back to slog.Default().
func NewReducer(logger *slog.Logger) *Reducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reducer{logger: logger.With(slog.String("component", "reducer"))}
}

// Reduce runs the reduction chain:
//
//	filter -> argmax -> correct -> convert -> truncate -> ultimate -> rolling -> regression
//
// Every failure is terminal for the specimen.
func (r *Reducer) Reduce(ctx context.Context, samples []domain.RawSample, cfg domain.SpecimenConfig) (*domain.SpecimenResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	if !(cfg.Radius > 0) {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("radius must be positive, got %g", cfg.Radius))
	}
	if cfg.HeadRows <= 0 && !cfg.HeadFraction.Valid() {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("regression head fraction %s must lie in (0, 1]", cfg.HeadFraction))
	}

	area := CrossSectionArea(cfg.Radius)

	valid := FilterValid(samples, cfg.MinimumForce)
	if len(valid) == 0 {
		return nil, apperrors.NewEmptyValidRangeError(len(samples), cfg.MinimumForce)
	}

	rowMax := ArgMaxForce(valid)
	corrected := CorrectDisplacement(valid)
	points := ToStressStrain(valid, corrected, cfg.Radius, cfg.DirectStress)
	series := Truncate(points, rowMax)

	stresses := make([]float64, len(series))
	strains := make([]float64, len(series))
	for i, p := range series {
		strains[i] = p.Strain
		stresses[i] = p.Stress
	}

	head := cfg.RegressionHead(len(series))
	if head < 2 {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("regression needs at least 2 points, head of %d samples has %d", len(series), head))
	}
	regression, err := LinearRegression(strains[:head], stresses[:head])
	if err != nil {
		return nil, err
	}

	result := &domain.SpecimenResult{
		Name:             cfg.Name,
		Area:             area,
		RowMax:           rowMax,
		ValidSamples:     len(valid),
		HeadCount:        head,
		UltimateStrength: UltimateStrength(series),
		YoungsModulus:    regression.Slope,
		Regression:       regression,
		Series:           series,
		RollingWindow:    cfg.RollingWindow,
		RollingAverage:   RollingMean(stresses, cfg.RollingWindow),
	}

	r.logger.InfoContext(ctx, "specimen reduced",
		slog.String("specimen", cfg.Name),
		slog.Int("raw_samples", len(samples)),
		slog.Int("valid_samples", len(valid)),
		slog.Int("row_max", rowMax),
		slog.Int("head", head),
		slog.Float64("ultimate_strength", result.UltimateStrength),
		slog.Float64("youngs_modulus", result.YoungsModulus),
		slog.Float64("r_value", regression.RValue),
	)
	return result, nil
}

// CrossSectionArea of a circular specimen.
func CrossSectionArea(radius float64) float64 {
	return math.Pi * radius * radius
}

// FilterValid keeps samples with force >= threshold and non-negative
// displacement, in order.
func FilterValid(samples []domain.RawSample, threshold float64) []domain.RawSample {
	valid := make([]domain.RawSample, 0, len(samples))
	for _, s := range samples {
		if s.Force >= threshold && s.Displacement >= 0 {
			valid = append(valid, s)
		}
	}
	return valid
}

// ArgMaxForce returns the index of the first maximum force, or -1 for an
// empty slice.
func ArgMaxForce(samples []domain.RawSample) int {
	idx := -1
	for i, s := range samples {
		if idx < 0 || s.Force > samples[idx].Force {
			idx = i
		}
	}
	return idx
}

// CorrectDisplacement shifts displacements so the first sample sits at zero.
func CorrectDisplacement(samples []domain.RawSample) []float64 {
	corrected := make([]float64, len(samples))
	if len(samples) == 0 {
		return corrected
	}
	origin := samples[0].Displacement
	for i, s := range samples {
		corrected[i] = s.Displacement - origin
	}
	return corrected
}

// ToStressStrain converts corrected displacement and force into strain and
// stress. With direct set the columns already hold strain-like position and
// stress, so values pass through unchanged.
func ToStressStrain(samples []domain.RawSample, corrected []float64, radius float64, direct bool) []domain.StressStrainPoint {
	points := make([]domain.StressStrainPoint, len(samples))
	if direct {
		for i, s := range samples {
			points[i] = domain.StressStrainPoint{Strain: corrected[i], Stress: s.Force}
		}
		return points
	}

	area := CrossSectionArea(radius)
	for i, s := range samples {
		points[i] = domain.StressStrainPoint{
			Strain: corrected[i] / radius,
			Stress: s.Force * KipsToPounds / area,
		}
	}
	return points
}

// Truncate returns a copy of points[0..rowMax] inclusive.
func Truncate(points []domain.StressStrainPoint, rowMax int) []domain.StressStrainPoint {
	if rowMax < 0 {
		return nil
	}
	if rowMax >= len(points) {
		rowMax = len(points) - 1
	}
	out := make([]domain.StressStrainPoint, rowMax+1)
	copy(out, points[:rowMax+1])
	return out
}

// UltimateStrength is the largest stress in the series.
func UltimateStrength(points []domain.StressStrainPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	ult := points[0].Stress
	for _, p := range points[1:] {
		if p.Stress > ult {
			ult = p.Stress
		}
	}
	return ult
}
