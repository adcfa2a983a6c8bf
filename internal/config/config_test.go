package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretelab/pkg/contracts/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultOutputDir, cfg.Paths.OutputDir)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, ProtocolCompression, cfg.Analysis.Protocol)
	assert.Equal(t, 50, cfg.Analysis.RollingWindow)
	assert.Equal(t, DefaultMinimumForce, cfg.Analysis.MinimumForce)
	assert.True(t, cfg.Analysis.WritePlots)
	assert.False(t, cfg.Analysis.WriteWorkbook)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  read_timeout: 5s
logging:
  level: debug
analysis:
  protocol: direct
  minimum_force: 0.15
  write_workbook: true
`)
	t.Setenv("CONCRETELAB_SERVER_PORT", "9191")
	t.Setenv("CONCRETELAB_ANALYSIS_ROLLING_WINDOW", "25")
	t.Setenv("CONCRETELAB_PATHS_OUTPUT_DIR", "/tmp/results")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "env wins over file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout, "file wins over default")
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "default kept")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ProtocolDirect, cfg.Analysis.Protocol)
	assert.Equal(t, 0.15, cfg.Analysis.MinimumForce)
	assert.Equal(t, 25, cfg.Analysis.RollingWindow)
	assert.True(t, cfg.Analysis.WriteWorkbook)
	assert.Equal(t, "/tmp/results", cfg.Paths.OutputDir)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad port", content: "server:\n  port: 70000\n"},
		{name: "unknown protocol", content: "analysis:\n  protocol: tensile\n"},
		{name: "zero rolling window", content: "analysis:\n  rolling_window: 0\n"},
		{name: "bad logging output", content: "logging:\n  output: syslog\n"},
		{name: "bad trace exporter", content: "telemetry:\n  trace_exporter: jaeger\n"},
		{name: "malformed yaml", content: "server: [\n"},
		{name: "bad env value", content: "", env: map[string]string{"CONCRETELAB_SERVER_PORT": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, "config.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLookupProtocol(t *testing.T) {
	p, err := LookupProtocol("Compression")
	require.NoError(t, err)
	assert.Equal(t, domain.CompressionHead, p.HeadFraction)
	assert.False(t, p.DirectStress)

	p, err = LookupProtocol("utm")
	require.NoError(t, err)
	assert.Equal(t, ProtocolDirect, p.Name)
	assert.Equal(t, domain.DirectHead, p.HeadFraction)
	assert.True(t, p.DirectStress)

	_, err = LookupProtocol("flexural")
	assert.Error(t, err)
}

func TestProtocol_Apply(t *testing.T) {
	direct, _ := LookupProtocol(ProtocolDirect)

	cfg := direct.Apply(domain.SpecimenConfig{Name: "a"})
	assert.Equal(t, domain.DirectHead, cfg.HeadFraction)
	assert.True(t, cfg.DirectStress)

	custom := domain.Fraction{Numerator: 1, Denominator: 2}
	cfg = direct.Apply(domain.SpecimenConfig{HeadFraction: custom})
	assert.Equal(t, custom, cfg.HeadFraction)

	cfg = direct.Apply(domain.SpecimenConfig{HeadRows: 5000})
	assert.Equal(t, domain.Fraction{}, cfg.HeadFraction)
}
