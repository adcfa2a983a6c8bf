// Package services holds the application services used by the CLI and the
// HTTP API.
//
// AnalysisService runs specimens through the operations pipeline, traces
// and measures every run and, when given an exporter, writes plots, series
// files and batch summaries. HealthService backs the liveness and
// readiness endpoints.
package services
