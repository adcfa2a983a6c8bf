package domain

import "math"

// RegressionResult is an ordinary least-squares fit of stress on strain.
type RegressionResult struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RValue    float64 `json:"r_value"`
	Points    int     `json:"points"`
}

// At evaluates the fitted line.
func (r RegressionResult) At(x float64) float64 {
	return r.Intercept + r.Slope*x
}

// RSquared is the coefficient of determination of the fit.
func (r RegressionResult) RSquared() float64 {
	return r.RValue * r.RValue
}

// SpecimenResult is the outcome of reducing one specimen.
type SpecimenResult struct {
	Name string `json:"name"`

	// Area is the cross-section used for the stress conversion.
	Area float64 `json:"area"`
	// RowMax is the index of peak force in the filtered samples.
	RowMax int `json:"row_max"`
	// ValidSamples counts samples that passed the force/displacement filter.
	ValidSamples int `json:"valid_samples"`
	// HeadCount is the number of points used for the modulus fit.
	HeadCount int `json:"head_count"`

	UltimateStrength float64          `json:"ultimate_strength"`
	YoungsModulus    float64          `json:"youngs_modulus"`
	Regression       RegressionResult `json:"regression"`

	// Series is truncated at peak load, so len(Series) == RowMax+1.
	Series []StressStrainPoint `json:"series"`

	// RollingAverage holds one value per complete trailing window:
	// RollingAverage[k] belongs to Series[k+RollingWindow-1].
	RollingWindow  int       `json:"rolling_window"`
	RollingAverage []float64 `json:"rolling_average"`

	// ReportedBreakStress echoes a "Stress at Break" metadata row, if any.
	ReportedBreakStress *float64 `json:"reported_break_stress,omitempty"`
}

// RollingAt returns the rolling average aligned with Series[i]. The second
// result is false where the trailing window is not yet full.
func (r *SpecimenResult) RollingAt(i int) (float64, bool) {
	k := i - (r.RollingWindow - 1)
	if k < 0 || k >= len(r.RollingAverage) {
		return math.NaN(), false
	}
	return r.RollingAverage[k], true
}

// Strains returns the strain column of the series.
func (r *SpecimenResult) Strains() []float64 {
	out := make([]float64, len(r.Series))
	for i, p := range r.Series {
		out[i] = p.Strain
	}
	return out
}

// Stresses returns the stress column of the series.
func (r *SpecimenResult) Stresses() []float64 {
	out := make([]float64, len(r.Series))
	for i, p := range r.Series {
		out[i] = p.Stress
	}
	return out
}

// FittedLine evaluates the regression at every strain of the series.
func (r *SpecimenResult) FittedLine() []float64 {
	out := make([]float64, len(r.Series))
	for i, p := range r.Series {
		out[i] = r.Regression.At(p.Strain)
	}
	return out
}

// SpecimenReport is what the service hands to callers: the reduction plus
// everything produced around it.
type SpecimenReport struct {
	Result    *SpecimenResult `json:"result"`
	Mix       *MixProportions `json:"mix,omitempty"`
	Artifacts []Artifact      `json:"artifacts,omitempty"`
}

// ArtifactKind identifies a written output file.
type ArtifactKind string

const (
	ArtifactPlot     ArtifactKind = "plot"
	ArtifactSeries   ArtifactKind = "series_csv"
	ArtifactWorkbook ArtifactKind = "workbook"
	ArtifactSummary  ArtifactKind = "summary_csv"
)

// Artifact is a file written for a specimen or a batch.
type Artifact struct {
	Kind ArtifactKind `json:"kind"`
	Path string       `json:"path"`
}

// SpecimenOutcome is one entry of a batch run. Exactly one of Report and
// Err is set.
type SpecimenOutcome struct {
	Name   string          `json:"name"`
	Report *SpecimenReport `json:"report,omitempty"`
	Err    error           `json:"-"`
}

// Failed reports whether the specimen did not produce a report.
func (o SpecimenOutcome) Failed() bool {
	return o.Err != nil
}
