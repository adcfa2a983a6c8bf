package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"concretelab/pkg/contracts/domain"
)

// Batch is a decoded specimens file.
type Batch struct {
	Protocol  Protocol
	Specimens []domain.SpecimenConfig
}

type batchDocument struct {
	Protocol  string        `yaml:"protocol"`
	Defaults  interface{}   `yaml:"defaults"`
	Specimens []interface{} `yaml:"specimens"`
}

// LoadBatch reads a specimens file such as
//
//	protocol: compression
//	defaults:
//	  radius: 2
//	  force_column: 3
//	  displacement_column: 2
//	specimens:
//	  - name: Cylinder A
//	    file: data/a.xlsx
//	  - name: Cylinder B
//	    file: data/b.csv
//	    minimum_force: 1
//
// Every specimen starts from analysis-wide values, then the file's defaults,
// then its own entry. Relative input paths are resolved against the
// directory of the specimens file.
func LoadBatch(path string, analysis AnalysisConfig) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read specimens file: %w", err)
	}
	return ParseBatch(data, filepath.Dir(path), analysis)
}

// ParseBatch decodes a specimens document. baseDir anchors relative file
// paths.
func ParseBatch(data []byte, baseDir string, analysis AnalysisConfig) (*Batch, error) {
	var doc batchDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse specimens file: %w", err)
	}
	if len(doc.Specimens) == 0 {
		return nil, fmt.Errorf("specimens file lists no specimens")
	}

	protocolName := doc.Protocol
	if protocolName == "" {
		protocolName = analysis.Protocol
	}
	protocol, err := LookupProtocol(protocolName)
	if err != nil {
		return nil, err
	}

	base := domain.SpecimenConfig{
		MinimumForce:  analysis.MinimumForce,
		RollingWindow: analysis.RollingWindow,
	}
	if err := overlay(doc.Defaults, &base); err != nil {
		return nil, fmt.Errorf("invalid defaults: %w", err)
	}

	batch := &Batch{Protocol: protocol}
	seen := make(map[string]int)
	for i, node := range doc.Specimens {
		cfg := base
		if base.Mix != nil {
			mix := *base.Mix
			cfg.Mix = &mix
		}
		if err := overlay(node, &cfg); err != nil {
			return nil, fmt.Errorf("specimen %d: %w", i+1, err)
		}
		if cfg.Name == "" {
			return nil, fmt.Errorf("specimen %d has no name", i+1)
		}
		if prev, dup := seen[cfg.Name]; dup {
			return nil, fmt.Errorf("specimen %d reuses the name %q of specimen %d", i+1, cfg.Name, prev)
		}
		seen[cfg.Name] = i + 1

		if cfg.File != "" && !filepath.IsAbs(cfg.File) && baseDir != "" {
			cfg.File = filepath.Join(baseDir, cfg.File)
		}
		batch.Specimens = append(batch.Specimens, protocol.Apply(cfg))
	}
	return batch, nil
}

// overlay decodes a generic YAML node onto cfg, keeping fields it does not
// mention. Unknown keys are rejected.
func overlay(node interface{}, cfg *domain.SpecimenConfig) error {
	if node == nil {
		return nil
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}
