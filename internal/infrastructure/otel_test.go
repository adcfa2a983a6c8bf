package infrastructure

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"concretelab/internal/config"
	"concretelab/internal/shared/testutil"
)

func TestInitializeOTel_Disabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{ServiceName: "test", TraceExporter: "none"}, logger)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.Nil(t, providers.PrometheusHTTP)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_Enabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	var traces bytes.Buffer

	cfg := OTelConfigFrom(config.TelemetryConfig{
		TracingEnabled: true,
		TraceExporter:  "stdout",
		MetricsEnabled: true,
	})
	cfg.TraceWriter = &traces

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)
	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)
	assert.Equal(t, config.AppName, cfg.ServiceName)

	ctx, span := providers.Tracer.Start(context.Background(), "reduce")
	assert.True(t, span.IsRecording())
	assert.Len(t, GetTraceID(ctx), 32)
	span.End()

	metrics, err := NewAnalysisMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordSpecimen(ctx, 250*time.Millisecond, "", "")

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "specimens_analyzed_total")
	assert.Contains(t, string(body), "go_goroutines")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, providers.Shutdown(ctx))
	assert.Contains(t, traces.String(), `"Name": "reduce"`)
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "zipkin"}, nil)
	assert.Error(t, err)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestAnalysisMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewAnalysisMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordSpecimen(ctx, time.Second, "", "")
	metrics.RecordSpecimen(ctx, time.Second, "EMPTY_VALID_RANGE", "reduce")
	metrics.RecordSamples(ctx, ".csv", 700)
	metrics.RecordStage(ctx, "load", 10*time.Millisecond, true)
	metrics.RecordHTTPRequest(ctx, http.MethodPost, "/api/v1/specimens/analyze", 200, time.Millisecond)

	data := collect(t, reader)

	analyzed := data["specimens_analyzed_total"].(metricdata.Sum[int64])
	require.Len(t, analyzed.DataPoints, 1)
	assert.Equal(t, int64(1), analyzed.DataPoints[0].Value)

	failures := data["specimen_failures_total"].(metricdata.Sum[int64])
	require.Len(t, failures.DataPoints, 1)
	kind, ok := failures.DataPoints[0].Attributes.Value("kind")
	require.True(t, ok)
	assert.Equal(t, "EMPTY_VALID_RANGE", kind.AsString())

	samples := data["samples_loaded_total"].(metricdata.Sum[int64])
	assert.Equal(t, int64(700), samples.DataPoints[0].Value)

	durations := data["analysis_duration_seconds"].(metricdata.Histogram[float64])
	assert.Len(t, durations.DataPoints, 2)

	assert.Contains(t, data, "analysis_stage_duration_seconds")
	assert.Contains(t, data, "http_requests_total")

	var nilMetrics *AnalysisMetrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordSpecimen(ctx, time.Second, "", "")
		nilMetrics.RecordHTTPRequest(ctx, "GET", "/", 200, time.Second)
	})
}
