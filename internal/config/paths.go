package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains the resolved directories the application writes to
type Paths struct {
	BaseDir   string
	OutputDir string
	LogsDir   string
}

// NewPaths resolves cfg into absolute directories.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &Paths{
		BaseDir:   base,
		OutputDir: resolve(base, cfg.OutputDir, DefaultOutputDir),
		LogsDir:   resolve(base, cfg.LogsDir, DefaultLogsDir),
	}, nil
}

func resolve(base, dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetPlotPath returns "<specimen> plot.png" in the output directory
func (p *Paths) GetPlotPath(specimen string) string {
	return filepath.Join(p.OutputDir, SafeFileName(specimen)+PlotFileSuffix)
}

// GetSeriesPath returns "<specimen> series.csv" in the output directory
func (p *Paths) GetSeriesPath(specimen string) string {
	return filepath.Join(p.OutputDir, SafeFileName(specimen)+SeriesFileSuffix)
}

// GetReportPath returns a report file path in the output directory
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// GetLogPath returns a log file path
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// SafeFileName keeps a specimen name readable while removing characters
// that would escape the output directory or are invalid on Windows.
func SafeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "specimen"
	}
	return name
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
