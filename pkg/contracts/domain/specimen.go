package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RawSample is one row of a load test in file order.
type RawSample struct {
	Displacement float64 `json:"displacement"`
	Force        float64 `json:"force"`
}

// StressStrainPoint is a RawSample converted to material terms.
type StressStrainPoint struct {
	Strain float64 `json:"strain"`
	Stress float64 `json:"stress"`
}

// ColumnSelector picks a column either by 1-based position or by its
// literal header text. Exactly one of the two fields is set.
type ColumnSelector struct {
	Index int    `json:"index,omitempty" yaml:"index,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
}

// ByIndex selects a column by its 1-based position.
func ByIndex(index int) ColumnSelector {
	return ColumnSelector{Index: index}
}

// ByName selects a column by header text.
func ByName(name string) ColumnSelector {
	return ColumnSelector{Name: name}
}

// ParseColumnSelector treats an all-digit value as a 1-based index and
// anything else as a header name.
func ParseColumnSelector(value string) (ColumnSelector, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ColumnSelector{}, fmt.Errorf("empty column selector")
	}
	if idx, err := strconv.Atoi(value); err == nil {
		if idx < 1 {
			return ColumnSelector{}, fmt.Errorf("column index must be 1-based, got %d", idx)
		}
		return ByIndex(idx), nil
	}
	return ByName(value), nil
}

// IsZero reports whether neither an index nor a name was given.
func (c ColumnSelector) IsZero() bool {
	return c.Index == 0 && c.Name == ""
}

// ZeroBased returns the 0-based position for index selectors.
func (c ColumnSelector) ZeroBased() int {
	return c.Index - 1
}

func (c ColumnSelector) String() string {
	if c.Name != "" {
		return strconv.Quote(c.Name)
	}
	return "#" + strconv.Itoa(c.Index)
}

// UnmarshalYAML accepts either a scalar ("3", "Stress (psi)") or a mapping.
func (c *ColumnSelector) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var scalar string
	if err := unmarshal(&scalar); err == nil {
		parsed, err := ParseColumnSelector(scalar)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	type plain ColumnSelector
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*c = ColumnSelector(p)
	return nil
}

// Fraction is an exact ratio used for the regression head so that the
// sample count is computed in integer arithmetic.
type Fraction struct {
	Numerator   int `json:"numerator" yaml:"numerator"`
	Denominator int `json:"denominator" yaml:"denominator"`
}

// Regression head fractions used by the two test protocols.
var (
	CompressionHead = Fraction{Numerator: 3, Denominator: 7}
	DirectHead      = Fraction{Numerator: 4, Denominator: 7}
)

// ParseFraction parses "3/7". A bare integer n is read as n/1.
func ParseFraction(value string) (Fraction, error) {
	value = strings.TrimSpace(value)
	num, den, found := strings.Cut(value, "/")
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return Fraction{}, fmt.Errorf("invalid fraction %q: %w", value, err)
	}
	d := 1
	if found {
		d, err = strconv.Atoi(strings.TrimSpace(den))
		if err != nil {
			return Fraction{}, fmt.Errorf("invalid fraction %q: %w", value, err)
		}
	}
	f := Fraction{Numerator: n, Denominator: d}
	if !f.Valid() {
		return Fraction{}, fmt.Errorf("fraction %q must lie in (0, 1]", value)
	}
	return f, nil
}

// Valid reports whether the fraction lies in (0, 1].
func (f Fraction) Valid() bool {
	return f.Denominator > 0 && f.Numerator > 0 && f.Numerator <= f.Denominator
}

// Of returns floor(f * n).
func (f Fraction) Of(n int) int {
	if f.Denominator == 0 {
		return 0
	}
	return n * f.Numerator / f.Denominator
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

// UnmarshalYAML accepts "3/7" as well as the mapping form.
func (f *Fraction) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var scalar string
	if err := unmarshal(&scalar); err == nil {
		parsed, err := ParseFraction(scalar)
		if err != nil {
			return err
		}
		*f = parsed
		return nil
	}

	type plain Fraction
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*f = Fraction(p)
	return nil
}

// DefaultRollingWindow is the trailing window of the stress moving average.
const DefaultRollingWindow = 50

// SpecimenConfig holds everything needed to analyze one specimen.
// It is built once per run and never mutated by the pipeline.
type SpecimenConfig struct {
	// Name labels reports and the plot file.
	Name string `json:"name" yaml:"name" validate:"required"`

	// File is the input table (.csv or .xlsx).
	File string `json:"file,omitempty" yaml:"file"`

	// Radius of the cylindrical specimen in inches. Zero means "take it
	// from the file's Diameter metadata row".
	Radius float64 `json:"radius" yaml:"radius" validate:"gte=0"`

	ForceColumn        ColumnSelector `json:"force_column" yaml:"force_column"`
	DisplacementColumn ColumnSelector `json:"displacement_column" yaml:"displacement_column"`

	// MinimumForce drops slack samples below this load.
	MinimumForce float64 `json:"minimum_force" yaml:"minimum_force"`

	// HeadFraction of the truncated series used for the modulus fit.
	HeadFraction Fraction `json:"head_fraction" yaml:"head_fraction"`
	// HeadRows, when positive, replaces HeadFraction with a fixed count.
	HeadRows int `json:"head_rows,omitempty" yaml:"head_rows" validate:"gte=0"`

	// HeaderRow is the 0-based row holding column headers. Rows above it
	// are read as "Label: value" metadata.
	HeaderRow int `json:"header_row,omitempty" yaml:"header_row" validate:"gte=0"`
	// SkipRows unit/comment rows directly beneath the header.
	SkipRows int `json:"skip_rows,omitempty" yaml:"skip_rows" validate:"gte=0"`
	// Sheet name for workbooks; empty means the first sheet.
	Sheet string `json:"sheet,omitempty" yaml:"sheet"`

	// DirectStress marks inputs that already carry stress and ram position,
	// so no unit or area conversion is applied.
	DirectStress bool `json:"direct_stress,omitempty" yaml:"direct_stress"`

	RollingWindow int `json:"rolling_window,omitempty" yaml:"rolling_window" validate:"gte=0"`

	Mix *MixDesign `json:"mix,omitempty" yaml:"mix"`
}

// WithDefaults fills the fields that have a protocol-independent default.
func (c SpecimenConfig) WithDefaults() SpecimenConfig {
	if c.RollingWindow == 0 {
		c.RollingWindow = DefaultRollingWindow
	}
	return c
}

// RegressionHead returns how many leading points of a truncated series of
// length n go into the modulus fit.
func (c SpecimenConfig) RegressionHead(n int) int {
	if c.HeadRows > 0 {
		if c.HeadRows > n {
			return n
		}
		return c.HeadRows
	}
	return c.HeadFraction.Of(n)
}
