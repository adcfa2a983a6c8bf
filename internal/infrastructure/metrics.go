package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AnalysisMetrics are the business metrics of specimen analysis and the
// HTTP API in front of it.
type AnalysisMetrics struct {
	SpecimensAnalyzed metric.Int64Counter
	SpecimenFailures  metric.Int64Counter
	AnalysisDuration  metric.Float64Histogram
	StageDuration     metric.Float64Histogram
	SamplesLoaded     metric.Int64Counter

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// NewAnalysisMetrics registers the instruments on meter.
func NewAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	analyzed, err := meter.Int64Counter(
		"specimens_analyzed_total",
		metric.WithDescription("Specimens reduced successfully"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"specimen_failures_total",
		metric.WithDescription("Specimens that failed, by error kind and stage"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"analysis_duration_seconds",
		metric.WithDescription("Wall time of one specimen analysis"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"analysis_stage_duration_seconds",
		metric.WithDescription("Wall time of one pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	samples, err := meter.Int64Counter(
		"samples_loaded_total",
		metric.WithDescription("Raw samples read from input files"),
	)
	if err != nil {
		return nil, err
	}

	httpRequests, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &AnalysisMetrics{
		SpecimensAnalyzed:   analyzed,
		SpecimenFailures:    failures,
		AnalysisDuration:    duration,
		StageDuration:       stageDuration,
		SamplesLoaded:       samples,
		HTTPRequestsTotal:   httpRequests,
		HTTPRequestDuration: httpDuration,
	}, nil
}

// RecordSpecimen records the outcome of one specimen. kind and stage are
// empty on success.
func (m *AnalysisMetrics) RecordSpecimen(ctx context.Context, duration time.Duration, kind, stage string) {
	if m == nil {
		return
	}

	status := "success"
	if kind != "" {
		status = "failure"
		m.SpecimenFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("stage", stage),
		))
	} else {
		m.SpecimensAnalyzed.Add(ctx, 1)
	}

	m.AnalysisDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

// RecordStage records the duration of a pipeline stage
func (m *AnalysisMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordSamples counts samples read from a file of the given format
func (m *AnalysisMetrics) RecordSamples(ctx context.Context, format string, n int) {
	if m == nil {
		return
	}
	m.SamplesLoaded.Add(ctx, int64(n), metric.WithAttributes(attribute.String("format", format)))
}

// RecordHTTPRequest records one served request
func (m *AnalysisMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}
