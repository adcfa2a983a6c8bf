package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"concretelab/pkg/contracts/domain"
)

// CompressionConfig is a force/displacement specimen with the columns
// "Displacement" (1) and "Force" (2), radius 2 in and a 0.5 kip threshold.
func CompressionConfig(name string) domain.SpecimenConfig {
	return domain.SpecimenConfig{
		Name:               name,
		Radius:             2,
		ForceColumn:        domain.ByIndex(2),
		DisplacementColumn: domain.ByIndex(1),
		MinimumForce:       0.5,
		HeadFraction:       domain.CompressionHead,
	}
}

// RampSamples returns n samples loading linearly up to a peak at index
// peak, then softening. peak >= n gives a monotonic ramp.
func RampSamples(n, peak int) []domain.RawSample {
	samples := make([]domain.RawSample, n)
	for i := range samples {
		force := 1 + float64(i)*0.01
		if i > peak {
			force = 1 + float64(peak)*0.01 - float64(i-peak)*0.005
		}
		samples[i] = domain.RawSample{Displacement: float64(i) * 0.001, Force: force}
	}
	return samples
}

// WriteSamplesCSV writes samples under a "Displacement,Force" header and
// returns the file path.
func WriteSamplesCSV(t *testing.T, dir, name string, samples []domain.RawSample) string {
	t.Helper()

	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteString("Displacement,Force\n")
	require.NoError(t, err)
	for _, s := range samples {
		_, err = f.WriteString(formatFloat(s.Displacement) + "," + formatFloat(s.Force) + "\n")
		require.NoError(t, err)
	}
	return f.Name()
}

// WriteSamplesWorkbook writes samples to the first sheet of a workbook with
// the same layout as WriteSamplesCSV.
func WriteSamplesWorkbook(t *testing.T, dir, name string, samples []domain.RawSample) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Displacement", "Force"}))
	for i, s := range samples {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &[]interface{}{s.Displacement, s.Force}))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
