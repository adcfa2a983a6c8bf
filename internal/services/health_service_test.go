package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretelab/internal/config"
	"concretelab/pkg/contracts"
)

func TestHealthService(t *testing.T) {
	paths, err := config.NewPaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	hs := NewHealthService(paths, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, contracts.Version, live.Version)
	assert.Contains(t, live.Runtime, "goroutines")

	ready := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", ready.Status)
	assert.DirExists(t, paths.OutputDir)

	assert.Equal(t, contracts.Version, hs.Version().Version)
}

func TestHealthService_NotReady(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	hs := NewHealthService(&config.Paths{BaseDir: base, OutputDir: filepath.Join(blocker, "out")}, nil)
	ready := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", ready.Status)
	assert.Equal(t, "not_ready", ready.Services["output"].Status)

	assert.Equal(t, "ready", NewHealthService(nil, nil).ReadinessCheck(context.Background()).Status)
}
