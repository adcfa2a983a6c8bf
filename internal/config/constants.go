package config

import (
	"fmt"
	"strings"

	"concretelab/pkg/contracts/domain"
)

// Application constants
const (
	AppName   = "concretelab"
	EnvPrefix = "CONCRETELAB"

	// HTTP
	DefaultPort           = 8080
	DefaultMaxUploadBytes = 32 << 20
	DefaultRateLimit      = 20 // requests per second
	DefaultBurstSize      = 40

	// File Paths
	DefaultOutputDir = "output"
	DefaultLogsDir   = "logs"

	// Analysis
	DefaultMinimumForce  = 0.5 // kips
	DefaultRollingWindow = domain.DefaultRollingWindow
	DefaultPlotWidth     = 1200
	DefaultPlotHeight    = 800

	// Output file names
	PlotFileSuffix   = " plot.png"
	SeriesFileSuffix = " series.csv"
	SummaryCSVName   = "summary.csv"
	WorkbookName     = "results.xlsx"
)

// Test protocol names
const (
	ProtocolCompression = "compression"
	ProtocolDirect      = "direct"
)

// Protocol is a named preset for the parts of a SpecimenConfig that follow
// from how the test was run.
type Protocol struct {
	Name         string
	HeadFraction domain.Fraction
	DirectStress bool
}

var protocols = map[string]Protocol{
	ProtocolCompression: {Name: ProtocolCompression, HeadFraction: domain.CompressionHead},
	ProtocolDirect:      {Name: ProtocolDirect, HeadFraction: domain.DirectHead, DirectStress: true},
}

// LookupProtocol resolves a protocol name. "utm" is accepted for direct.
func LookupProtocol(name string) (Protocol, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "utm" {
		key = ProtocolDirect
	}
	p, ok := protocols[key]
	if !ok {
		return Protocol{}, fmt.Errorf("unknown protocol %q (want %s or %s)", name, ProtocolCompression, ProtocolDirect)
	}
	return p, nil
}

// Apply fills the protocol-derived fields the specimen left unset.
// Direct stress input always fits over the direct head, whichever protocol
// was named.
func (p Protocol) Apply(cfg domain.SpecimenConfig) domain.SpecimenConfig {
	if p.DirectStress {
		cfg.DirectStress = true
	}
	if cfg.HeadRows == 0 && cfg.HeadFraction == (domain.Fraction{}) {
		cfg.HeadFraction = p.HeadFraction
		if cfg.DirectStress {
			cfg.HeadFraction = domain.DirectHead
		}
	}
	return cfg
}
