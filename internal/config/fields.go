package config

import (
	"fmt"
	"strconv"
	"strings"

	"concretelab/pkg/contracts/domain"
)

// SpecimenFields is a specimen described by loose text values, as given on
// the command line or in a form post. Empty values take the run defaults.
type SpecimenFields struct {
	Name               string
	File               string
	Radius             string
	ForceColumn        string
	DisplacementColumn string
	MinimumForce       string
	Protocol           string
	HeadFraction       string
	HeadRows           string
	HeaderRow          string
	SkipRows           string
	Sheet              string
	Direct             string
	RollingWindow      string

	SandLbs      string
	AggregateLbs string
	CementLbs    string
	WaterLbs     string
}

// Build turns the fields into a SpecimenConfig with protocol defaults
// applied. Parse failures name the offending field.
func (f SpecimenFields) Build(analysis AnalysisConfig) (domain.SpecimenConfig, error) {
	cfg := domain.SpecimenConfig{
		Name:          strings.TrimSpace(f.Name),
		File:          strings.TrimSpace(f.File),
		Sheet:         strings.TrimSpace(f.Sheet),
		MinimumForce:  analysis.MinimumForce,
		RollingWindow: analysis.RollingWindow,
	}

	var err error
	if cfg.Radius, err = parseFloatField("radius", f.Radius, 0); err != nil {
		return cfg, err
	}
	if cfg.MinimumForce, err = parseFloatField("min-force", f.MinimumForce, cfg.MinimumForce); err != nil {
		return cfg, err
	}
	if cfg.HeadRows, err = parseIntField("head-rows", f.HeadRows, 0); err != nil {
		return cfg, err
	}
	if cfg.HeaderRow, err = parseIntField("header-row", f.HeaderRow, 0); err != nil {
		return cfg, err
	}
	if cfg.SkipRows, err = parseIntField("skip-rows", f.SkipRows, 0); err != nil {
		return cfg, err
	}
	if cfg.RollingWindow, err = parseIntField("rolling-window", f.RollingWindow, cfg.RollingWindow); err != nil {
		return cfg, err
	}

	if cfg.ForceColumn, err = parseColumnField("force-col", f.ForceColumn); err != nil {
		return cfg, err
	}
	if cfg.DisplacementColumn, err = parseColumnField("disp-col", f.DisplacementColumn); err != nil {
		return cfg, err
	}

	if v := strings.TrimSpace(f.HeadFraction); v != "" {
		if cfg.HeadFraction, err = domain.ParseFraction(v); err != nil {
			return cfg, fmt.Errorf("head-fraction: %w", err)
		}
	}

	if v := strings.TrimSpace(f.Direct); v != "" {
		if cfg.DirectStress, err = strconv.ParseBool(v); err != nil {
			return cfg, fmt.Errorf("direct: %q is not a boolean", v)
		}
	}

	if cfg.Mix, err = f.mix(); err != nil {
		return cfg, err
	}

	protocolName := strings.TrimSpace(f.Protocol)
	if protocolName == "" {
		protocolName = analysis.Protocol
	}
	protocol, err := LookupProtocol(protocolName)
	if err != nil {
		return cfg, err
	}
	return protocol.Apply(cfg), nil
}

// mix returns nil when no constituent was given.
func (f SpecimenFields) mix() (*domain.MixDesign, error) {
	mix := &domain.MixDesign{}
	values := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"sand", f.SandLbs, &mix.Sand},
		{"aggregate", f.AggregateLbs, &mix.Aggregate},
		{"cement", f.CementLbs, &mix.Cement},
		{"water", f.WaterLbs, &mix.Water},
	}

	given := false
	for _, v := range values {
		if strings.TrimSpace(v.raw) == "" {
			continue
		}
		parsed, err := parseFloatField(v.name, v.raw, 0)
		if err != nil {
			return nil, err
		}
		*v.dst = parsed
		given = true
	}
	if !given {
		return nil, nil
	}
	return mix, nil
}

func parseFloatField(name, raw string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return v, nil
}

func parseIntField(name, raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, raw)
	}
	return v, nil
}

func parseColumnField(name, raw string) (domain.ColumnSelector, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.ColumnSelector{}, nil
	}
	sel, err := domain.ParseColumnSelector(raw)
	if err != nil {
		return sel, fmt.Errorf("%s: %w", name, err)
	}
	return sel, nil
}
