package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"concretelab/pkg/contracts/domain"
)

// Axis labels of the stress-strain plot.
const (
	StrainAxisLabel = "Strain (in/in)"
	StressAxisLabel = "Stress (psi)"
)

// ChartRenderer draws the stress-strain plot of a specimen as PNG.
type ChartRenderer struct {
	Width  int
	Height int
}

// NewChartRenderer creates a renderer with the given canvas size in pixels.
func NewChartRenderer(width, height int) *ChartRenderer {
	return &ChartRenderer{Width: width, Height: height}
}

// SeriesLabel is the legend entry of the measured curve.
func SeriesLabel(name string) string {
	return fmt.Sprintf("Structural Analysis of %s", name)
}

// RegressionLabel is the legend entry of the fitted line. It shows the
// correlation coefficient r.
func RegressionLabel(r domain.RegressionResult) string {
	return fmt.Sprintf("Regression Line = %fx + %f with R^2 %f", r.Slope, r.Intercept, r.RValue)
}

// RollingLabel is the legend entry of the moving average.
const RollingLabel = "Rolling Average"

// Title of the plot.
func Title(result *domain.SpecimenResult) string {
	return fmt.Sprintf("Stress vs. Strain of %s with Ultimate Strength %f", result.Name, result.UltimateStrength)
}

func lineStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: width,
	}
}

// Build assembles the chart for result without rendering it.
func (r *ChartRenderer) Build(result *domain.SpecimenResult) (*chart.Chart, error) {
	if len(result.Series) < 2 {
		return nil, fmt.Errorf("plot needs at least 2 points, %s has %d", result.Name, len(result.Series))
	}

	strains := result.Strains()
	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    SeriesLabel(result.Name),
			XValues: strains,
			YValues: result.Stresses(),
			Style:   lineStyle(chart.ColorBlue, 2),
		},
		chart.ContinuousSeries{
			Name:    RegressionLabel(result.Regression),
			XValues: strains,
			YValues: result.FittedLine(),
			Style:   lineStyle(chart.ColorOrange, 1.5),
		},
	}

	// The rolling curve starts where the first window is full.
	if len(result.RollingAverage) >= 2 {
		offset := result.RollingWindow - 1
		series = append(series, chart.ContinuousSeries{
			Name:    RollingLabel,
			XValues: strains[offset : offset+len(result.RollingAverage)],
			YValues: result.RollingAverage,
			Style:   lineStyle(chart.ColorGreen, 1.5),
		})
	}

	ch := &chart.Chart{
		Title:      Title(result),
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: StrainAxisLabel},
		YAxis:      chart.YAxis{Name: StressAxisLabel},
		Series:     series,
	}
	if result.UltimateStrength > 0 {
		ch.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: result.UltimateStrength}
	}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}
	return ch, nil
}

// Render writes the PNG plot of result to w.
func (r *ChartRenderer) Render(result *domain.SpecimenResult, w io.Writer) error {
	ch, err := r.Build(result)
	if err != nil {
		return err
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render plot of %s: %w", result.Name, err)
	}
	return nil
}

// RenderFile writes the PNG plot of result to path.
func (r *ChartRenderer) RenderFile(result *domain.SpecimenResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	if err := r.Render(result, file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}
