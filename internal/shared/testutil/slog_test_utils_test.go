package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretelab/internal/dataprocessing"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("specimen reduced", slog.String("specimen", "A1"))
		logger.Error("load failed", slog.Int("row", 12))

		require.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("reduced"))
		assert.True(t, handler.ContainsAttr("specimen", "A1"))
		assert.True(t, handler.ContainsAttr("row", int64(12)))
	})

	t.Run("keeps attrs bound with With", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "reducer")).Info("done")

		AssertLogAttr(t, handler, "component", "reducer")
		assert.Equal(t, 1, handler.Count())
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("message 1")
		logger.Info("message 2")
		require.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})

	t.Run("concurrent logging", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.With(slog.Int("worker", n)).Info("concurrent log")
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}

func TestFixtures(t *testing.T) {
	samples := RampSamples(10, 6)
	assert.Equal(t, 6, dataprocessing.ArgMaxForce(samples))

	dir := t.TempDir()
	cfg := CompressionConfig("fixture")

	for _, path := range []string{
		WriteSamplesCSV(t, dir, "ramp.csv", samples),
		WriteSamplesWorkbook(t, dir, "ramp.xlsx", samples),
	} {
		table, err := dataprocessing.LoadSamples(context.Background(), path, cfg)
		require.NoError(t, err, path)
		assert.Equal(t, samples, table.Samples, path)
	}
}
