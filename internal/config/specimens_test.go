package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretelab/pkg/contracts/domain"
)

const batchYAML = `
protocol: compression
defaults:
  radius: 2
  force_column: 3
  displacement_column: Displacement (in)
  mix:
    sand_lbs: 10
    aggregate_lbs: 20
    cement_lbs: 5
    water_lbs: 2
specimens:
  - name: Cylinder A
    file: data/a.xlsx
  - name: Cylinder B
    file: /abs/b.csv
    minimum_force: 1
    head_rows: 5000
    mix:
      water_lbs: 3
  - name: UTM 1
    file: utm.xlsx
    radius: 0
    header_row: 2
    skip_rows: 2
    head_fraction: 4/7
    direct_stress: true
`

func TestParseBatch(t *testing.T) {
	analysis := Default().Analysis

	batch, err := ParseBatch([]byte(batchYAML), "/specimens", analysis)
	require.NoError(t, err)
	require.Len(t, batch.Specimens, 3)
	assert.Equal(t, ProtocolCompression, batch.Protocol.Name)

	a := batch.Specimens[0]
	assert.Equal(t, "Cylinder A", a.Name)
	assert.Equal(t, filepath.Join("/specimens", "data/a.xlsx"), a.File)
	assert.Equal(t, 2.0, a.Radius)
	assert.Equal(t, domain.ByIndex(3), a.ForceColumn)
	assert.Equal(t, domain.ByName("Displacement (in)"), a.DisplacementColumn)
	assert.Equal(t, analysis.MinimumForce, a.MinimumForce)
	assert.Equal(t, analysis.RollingWindow, a.RollingWindow)
	assert.Equal(t, domain.CompressionHead, a.HeadFraction)
	require.NotNil(t, a.Mix)
	assert.Equal(t, 2.0, a.Mix.Water)

	b := batch.Specimens[1]
	assert.Equal(t, "/abs/b.csv", b.File)
	assert.Equal(t, 1.0, b.MinimumForce)
	assert.Equal(t, 5000, b.HeadRows)
	assert.Equal(t, domain.Fraction{}, b.HeadFraction)
	require.NotNil(t, b.Mix)
	assert.Equal(t, 3.0, b.Mix.Water)
	assert.Equal(t, 10.0, b.Mix.Sand)
	assert.Equal(t, 2.0, a.Mix.Water, "specimens must not share the defaults mix")

	utm := batch.Specimens[2]
	assert.Equal(t, 0.0, utm.Radius)
	assert.Equal(t, 2, utm.HeaderRow)
	assert.Equal(t, 2, utm.SkipRows)
	assert.Equal(t, domain.DirectHead, utm.HeadFraction)
	assert.True(t, utm.DirectStress)
}

func TestParseBatch_DirectStressUsesDirectHead(t *testing.T) {
	doc := `
protocol: compression
specimens:
  - name: Ram 1
    file: ram.csv
    direct_stress: true
  - name: Ram 2
    file: ram2.csv
    direct_stress: true
    head_rows: 40
`
	batch, err := ParseBatch([]byte(doc), "", Default().Analysis)
	require.NoError(t, err)
	require.Len(t, batch.Specimens, 2)

	assert.True(t, batch.Specimens[0].DirectStress)
	assert.Equal(t, domain.DirectHead, batch.Specimens[0].HeadFraction)

	assert.Equal(t, 40, batch.Specimens[1].HeadRows)
	assert.Equal(t, domain.Fraction{}, batch.Specimens[1].HeadFraction)
}

func TestParseBatch_Errors(t *testing.T) {
	analysis := Default().Analysis

	tests := map[string]string{
		"no specimens":     "protocol: compression\n",
		"unknown protocol": "protocol: bend\nspecimens:\n  - name: a\n",
		"missing name":     "specimens:\n  - file: a.csv\n",
		"duplicate name":   "specimens:\n  - name: a\n  - name: a\n",
		"unknown key":      "specimens:\n  - name: a\n    radus: 2\n",
		"bad fraction":     "specimens:\n  - name: a\n    head_fraction: 8/7\n",
		"bad defaults":     "defaults:\n  radius: wide\nspecimens:\n  - name: a\n",
		"not yaml":         "specimens: [\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBatch([]byte(doc), "", analysis)
			assert.Error(t, err)
		})
	}
}

func TestLoadBatch(t *testing.T) {
	path := writeFile(t, "specimens.yaml", "specimens:\n  - name: a\n    file: a.csv\n")

	batch, err := LoadBatch(path, Default().Analysis)
	require.NoError(t, err)
	require.Len(t, batch.Specimens, 1)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "a.csv"), batch.Specimens[0].File)

	_, err = LoadBatch(filepath.Join(t.TempDir(), "missing.yaml"), Default().Analysis)
	assert.Error(t, err)
}
