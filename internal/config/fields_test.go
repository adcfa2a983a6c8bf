package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretelab/pkg/contracts/domain"
)

func TestSpecimenFields_Build(t *testing.T) {
	analysis := Default().Analysis

	t.Run("compression defaults", func(t *testing.T) {
		cfg, err := SpecimenFields{
			Name:               " Cob A ",
			Radius:             "2",
			ForceColumn:        "3",
			DisplacementColumn: "Displacement (in)",
		}.Build(analysis)
		require.NoError(t, err)

		assert.Equal(t, "Cob A", cfg.Name)
		assert.Equal(t, 2.0, cfg.Radius)
		assert.Equal(t, domain.ByIndex(3), cfg.ForceColumn)
		assert.Equal(t, domain.ByName("Displacement (in)"), cfg.DisplacementColumn)
		assert.Equal(t, DefaultMinimumForce, cfg.MinimumForce)
		assert.Equal(t, domain.CompressionHead, cfg.HeadFraction)
		assert.Equal(t, DefaultRollingWindow, cfg.RollingWindow)
		assert.False(t, cfg.DirectStress)
		assert.Nil(t, cfg.Mix)
	})

	t.Run("utm protocol", func(t *testing.T) {
		cfg, err := SpecimenFields{
			Name:         "UTM 1",
			Protocol:     "utm",
			HeaderRow:    "3",
			SkipRows:     "1",
			HeadRows:     "5000",
			MinimumForce: "0",
		}.Build(analysis)
		require.NoError(t, err)

		assert.True(t, cfg.DirectStress)
		assert.Equal(t, 5000, cfg.HeadRows)
		assert.Equal(t, domain.Fraction{}, cfg.HeadFraction)
		assert.Equal(t, 3, cfg.HeaderRow)
		assert.Equal(t, 1, cfg.SkipRows)
		assert.Zero(t, cfg.MinimumForce)
	})

	t.Run("direct flag under compression protocol", func(t *testing.T) {
		cfg, err := SpecimenFields{
			Name:   "Ram",
			Direct: "true",
		}.Build(analysis)
		require.NoError(t, err)

		assert.True(t, cfg.DirectStress)
		assert.Equal(t, domain.DirectHead, cfg.HeadFraction)
	})

	t.Run("explicit fraction and mix", func(t *testing.T) {
		cfg, err := SpecimenFields{
			Name:         "Mix",
			HeadFraction: "1/2",
			Direct:       "true",
			SandLbs:      "10",
			WaterLbs:     "2.5",
		}.Build(analysis)
		require.NoError(t, err)

		assert.Equal(t, domain.Fraction{Numerator: 1, Denominator: 2}, cfg.HeadFraction)
		assert.True(t, cfg.DirectStress)
		require.NotNil(t, cfg.Mix)
		assert.Equal(t, domain.MixDesign{Sand: 10, Water: 2.5}, *cfg.Mix)
	})
}

func TestSpecimenFields_BuildErrors(t *testing.T) {
	analysis := Default().Analysis

	tests := []struct {
		name   string
		fields SpecimenFields
		want   string
	}{
		{"radius", SpecimenFields{Radius: "two"}, "radius"},
		{"head rows", SpecimenFields{HeadRows: "1.5"}, "head-rows"},
		{"force column", SpecimenFields{ForceColumn: "0"}, "force-col"},
		{"fraction", SpecimenFields{HeadFraction: "8/7"}, "head-fraction"},
		{"direct", SpecimenFields{Direct: "maybe"}, "direct"},
		{"mix", SpecimenFields{CementLbs: "lots"}, "cement"},
		{"protocol", SpecimenFields{Protocol: "tension"}, "unknown protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fields.Build(analysis)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
