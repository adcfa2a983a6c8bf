package domain

import "fmt"

// MixDesign is the batch weight of each constituent, in pounds.
type MixDesign struct {
	Sand      float64 `json:"sand_lbs" yaml:"sand_lbs" validate:"gte=0"`
	Aggregate float64 `json:"aggregate_lbs" yaml:"aggregate_lbs" validate:"gte=0"`
	Cement    float64 `json:"cement_lbs" yaml:"cement_lbs" validate:"gte=0"`
	Water     float64 `json:"water_lbs" yaml:"water_lbs" validate:"gte=0"`
}

// MixProportions are the constituents as fractions of the total weight.
type MixProportions struct {
	TotalLbs  float64 `json:"total_lbs"`
	Sand      float64 `json:"sand"`
	Aggregate float64 `json:"aggregate"`
	Cement    float64 `json:"cement"`
	Water     float64 `json:"water"`
}

// Total returns the combined weight.
func (m MixDesign) Total() float64 {
	return m.Sand + m.Aggregate + m.Cement + m.Water
}

// Proportions divides each constituent by the total weight.
func (m MixDesign) Proportions() (MixProportions, error) {
	total := m.Total()
	if total <= 0 {
		return MixProportions{}, fmt.Errorf("mix design has no weight")
	}
	return MixProportions{
		TotalLbs:  total,
		Sand:      m.Sand / total,
		Aggregate: m.Aggregate / total,
		Cement:    m.Cement / total,
		Water:     m.Water / total,
	}, nil
}

// WaterCementRatio is water weight over cement weight.
func (m MixDesign) WaterCementRatio() (float64, error) {
	if m.Cement <= 0 {
		return 0, fmt.Errorf("mix design has no cement")
	}
	return m.Water / m.Cement, nil
}
