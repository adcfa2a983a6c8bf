package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/trace"

	"concretelab/internal/config"
	apperrors "concretelab/internal/errors"
	"concretelab/internal/infrastructure"
	"concretelab/internal/middleware"
	"concretelab/internal/services"
)

// RouterDeps are the collaborators the router wires together.
type RouterDeps struct {
	Server   config.ServerConfig
	Analysis config.AnalysisConfig

	Analyzer SpecimenAnalyzer
	Health   *services.HealthService

	Tracer  trace.Tracer
	Metrics *infrastructure.AnalysisMetrics
	// MetricsHandler serves /metrics; the route is omitted when nil.
	MetricsHandler http.Handler

	Logger *slog.Logger
	// Development adds panic details to problem responses.
	Development bool
}

// NewRouter builds the HTTP API.
// Middleware order: OTel, RequestID, logger, recoverer, security headers,
// rate limit.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apperrors.NewErrorHandler(logger, deps.Development)

	r := chi.NewRouter()
	r.Use(middleware.NewOTelMiddleware(deps.Tracer, deps.Metrics, logger).Handler)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(apperrors.RecoveryMiddleware(errorHandler))
	r.Use(middleware.SecurityHeaders)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Probes and scrapes stay outside the rate limit.
	health := NewHealthHandler(deps.Health, logger)
	r.Get("/healthz", health.LivenessCheck)
	r.Get("/readyz", health.ReadinessCheck)
	r.Get("/version", health.Version)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Server.RateLimit.Enabled {
			r.Use(middleware.NewRateLimiter(deps.Server.RateLimit.RPS, deps.Server.RateLimit.Burst, logger).Handler)
		}
		if deps.Server.WriteTimeout > 0 {
			r.Use(chimiddleware.Timeout(deps.Server.WriteTimeout))
		}
		r.Use(render.SetContentType(render.ContentTypeJSON))

		analysis := NewAnalysisHandler(deps.Analyzer, deps.Analysis, deps.Server.MaxUploadBytes, logger, errorHandler)
		r.Mount("/specimens", analysis.Routes())
	})

	return r
}
