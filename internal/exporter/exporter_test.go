package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"concretelab/internal/config"
	"concretelab/internal/dataprocessing"
	"concretelab/internal/shared/testutil"
	"concretelab/pkg/contracts/domain"
)

func reduce(t *testing.T, name string, n int) *domain.SpecimenResult {
	t.Helper()
	cfg := testutil.CompressionConfig(name)
	cfg.RollingWindow = 10
	result, err := dataprocessing.NewReducer(nil).Reduce(context.Background(), testutil.RampSamples(n, n), cfg)
	require.NoError(t, err)
	return result
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "missing BOM")

	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestChartRenderer_Render(t *testing.T) {
	result := reduce(t, "Conc Test", 60)

	var buf bytes.Buffer
	require.NoError(t, NewChartRenderer(800, 600).Render(result, &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
}

func TestChartRenderer_Build(t *testing.T) {
	result := reduce(t, "Cob Test", 60)

	ch, err := NewChartRenderer(800, 600).Build(result)
	require.NoError(t, err)

	assert.Equal(t, Title(result), ch.Title)
	assert.True(t, strings.HasPrefix(ch.Title, "Stress vs. Strain of Cob Test with Ultimate Strength "))
	assert.Equal(t, StrainAxisLabel, ch.XAxis.Name)
	assert.Equal(t, StressAxisLabel, ch.YAxis.Name)
	require.NotNil(t, ch.YAxis.Range)
	assert.Equal(t, 0.0, ch.YAxis.Range.GetMin())
	assert.Equal(t, result.UltimateStrength, ch.YAxis.Range.GetMax())

	require.Len(t, ch.Series, 3)
	assert.Equal(t, "Structural Analysis of Cob Test", ch.Series[0].GetName())
	assert.True(t, strings.HasPrefix(ch.Series[1].GetName(), "Regression Line = "))
	assert.Equal(t, RollingLabel, ch.Series[2].GetName())
}

func TestChartRenderer_ShortSeries(t *testing.T) {
	result := reduce(t, "Short", 8)
	assert.Empty(t, result.RollingAverage)

	ch, err := NewChartRenderer(400, 300).Build(result)
	require.NoError(t, err)
	assert.Len(t, ch.Series, 2, "rolling curve is omitted when no window is full")

	_, err = NewChartRenderer(400, 300).Build(&domain.SpecimenResult{Name: "one", Series: make([]domain.StressStrainPoint, 1)})
	assert.Error(t, err)
}

func TestRegressionLabel(t *testing.T) {
	label := RegressionLabel(domain.RegressionResult{Slope: 1500, Intercept: -2.5, RValue: 0.99})
	assert.Equal(t, "Regression Line = 1500.000000x + -2.500000 with R^2 0.990000", label)
}

func TestCSVWriter_WriteSeries(t *testing.T) {
	result := reduce(t, "S", 30)
	path := filepath.Join(t.TempDir(), "out", "S series.csv")

	require.NoError(t, NewCSVWriter(nil).WriteSeries(path, result))
	records := readCSV(t, path)

	require.Len(t, records, len(result.Series)+1)
	assert.Equal(t, SeriesHeaders, records[0])

	// Window 10: rows before index 9 have no rolling value.
	assert.Equal(t, "", records[1][2])
	assert.Equal(t, "", records[9][2])
	assert.NotEmpty(t, records[10][2])
	assert.Equal(t, formatFloat(result.RollingAverage[0]), records[10][2])
	assert.Equal(t, formatFloat(result.Series[0].Stress), records[1][1])
}

func TestCSVWriter_WriteSummary(t *testing.T) {
	breakStress := 3500.0
	ok := &domain.SpecimenReport{
		Result: reduce(t, "A", 30),
		Mix:    &domain.MixProportions{Sand: 0.5, Aggregate: 0.3, Cement: 0.15, Water: 0.05},
	}
	ok.Result.ReportedBreakStress = &breakStress

	outcomes := []domain.SpecimenOutcome{
		{Name: "A", Report: ok},
		{Name: "B", Err: errors.New("no sample of 10 has force >= 100")},
	}

	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, NewCSVWriter(nil).WriteSummary(path, outcomes))
	records := readCSV(t, path)

	require.Len(t, records, 3)
	assert.Equal(t, SummaryHeaders, records[0])

	a := records[1]
	assert.Equal(t, "A", a[0])
	assert.Equal(t, "ok", a[1])
	assert.Equal(t, formatFloat(ok.Result.UltimateStrength), a[3])
	assert.Equal(t, formatFloat(ok.Result.YoungsModulus), a[4])
	assert.Equal(t, "3500", a[12])
	assert.Equal(t, "0.5", a[13])

	b := records[2]
	assert.Equal(t, "failed", b[1])
	assert.Contains(t, b[2], "force >= 100")
	assert.Equal(t, "", b[3])
}

func TestWorkbookWriter_WriteWorkbook(t *testing.T) {
	outcomes := []domain.SpecimenOutcome{
		{Name: "Conc/Test:1", Report: &domain.SpecimenReport{Result: reduce(t, "Conc/Test:1", 20)}},
		{Name: "Failed", Err: errors.New("boom")},
		{Name: "summary", Report: &domain.SpecimenReport{Result: reduce(t, "summary", 15)}},
	}

	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, NewWorkbookWriter(nil).WriteWorkbook(path, outcomes))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, "Conc_Test_1", "summary (2)"}, f.GetSheetList())

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Failed", rows[2][0])
	assert.Equal(t, "boom", rows[2][2])

	series, err := f.GetRows("Conc_Test_1")
	require.NoError(t, err)
	assert.Len(t, series, 21)
	assert.Equal(t, SeriesHeaders, series[0])
}

func TestWorkbookWriter_NonFiniteValues(t *testing.T) {
	result := &domain.SpecimenResult{
		Name:             "Overload",
		Area:             math.Pi,
		RowMax:           2,
		ValidSamples:     3,
		UltimateStrength: math.Inf(1),
		YoungsModulus:    math.NaN(),
		Series: []domain.StressStrainPoint{
			{Strain: 0, Stress: 1},
			{Strain: 0.1, Stress: math.NaN()},
			{Strain: 0.2, Stress: math.Inf(1)},
		},
		RollingWindow: 50,
	}
	outcomes := []domain.SpecimenOutcome{
		{Name: "Overload", Report: &domain.SpecimenReport{Result: result}},
	}

	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, NewWorkbookWriter(nil).WriteWorkbook(path, outcomes))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "+Inf", rows[1][3])
	assert.Equal(t, "NaN", rows[1][4])

	series, err := f.GetRows("Overload")
	require.NoError(t, err)
	require.Len(t, series, 4)
	assert.Equal(t, "NaN", series[2][1])
	assert.Equal(t, "+Inf", series[3][1])
}

func TestCellValues(t *testing.T) {
	in := []interface{}{"name", 1.5, math.Inf(-1), nil, 3}
	assert.Equal(t, []interface{}{"name", 1.5, "-Inf", nil, 3}, cellValues(in))
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)

	assert.Equal(t, strings.Repeat("x", 31), uniqueSheetName(long, used))
	assert.Equal(t, strings.Repeat("x", 27)+" (2)", uniqueSheetName(long, used))
	assert.Equal(t, "Specimen", uniqueSheetName("  ", used))
	assert.Equal(t, "a_b", uniqueSheetName("a[b", used))
}

func TestArtifactExporter(t *testing.T) {
	paths, err := config.NewPaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	options := config.Default().Analysis
	options.PlotWidth, options.PlotHeight = 640, 480
	options.WritePlots = true
	options.WriteSeriesCSV = true
	options.WriteWorkbook = true

	exp := NewArtifactExporter(paths, options, nil)
	report := &domain.SpecimenReport{Result: reduce(t, "Conc Test", 40)}

	artifacts, err := exp.WriteSpecimen(context.Background(), report)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, filepath.Join(paths.OutputDir, "Conc Test plot.png"), artifacts[0].Path)
	assert.FileExists(t, artifacts[0].Path)
	assert.Equal(t, domain.ArtifactSeries, artifacts[1].Kind)
	assert.FileExists(t, artifacts[1].Path)

	batch, err := exp.WriteBatch(context.Background(), []domain.SpecimenOutcome{{Name: "Conc Test", Report: report}})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, domain.ArtifactSummary, batch[0].Kind)
	assert.FileExists(t, paths.GetReportPath(config.SummaryCSVName))
	assert.FileExists(t, paths.GetReportPath(config.WorkbookName))
}

func TestArtifactExporter_NothingEnabled(t *testing.T) {
	paths, err := config.NewPaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	exp := NewArtifactExporter(paths, config.AnalysisConfig{}, nil)
	artifacts, err := exp.WriteSpecimen(context.Background(), &domain.SpecimenReport{Result: reduce(t, "X", 20)})
	require.NoError(t, err)
	assert.Empty(t, artifacts)
	assert.NoFileExists(t, paths.GetPlotPath("X"))
}
