package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"concretelab/internal/config"
	"concretelab/internal/exporter"
	"concretelab/internal/infrastructure"
	"concretelab/internal/services"
	handlers "concretelab/internal/transport/http"
	"concretelab/pkg/contracts"
)

// Application wires configuration, observability and services for one
// process. Both binaries build on it.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.AnalysisMetrics

	Analysis *services.AnalysisService
	Health   *services.HealthService

	Router http.Handler
	Server *http.Server

	ownsLogger bool
}

// Option configures NewApplication
type Option func(*options)

type options struct {
	logger    *slog.Logger
	artifacts bool
}

// WithLogger uses logger instead of initializing the process logger from
// the logging config.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithArtifacts makes the analysis service write plots, series and batch
// reports under the output directory.
func WithArtifacts() Option {
	return func(o *options) { o.artifacts = true }
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(cfg *config.Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &Application{Config: cfg, Logger: o.logger}
	if a.Logger == nil {
		logger, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.Logger = logger
		a.ownsLogger = true
	}

	a.Logger.Info("application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("protocol", cfg.Analysis.Protocol))

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	a.Paths = paths

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	a.Metrics, err = infrastructure.NewAnalysisMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis metrics: %w", err)
	}

	serviceOpts := []services.AnalysisOption{
		services.WithTracer(providers.Tracer),
		services.WithMetrics(a.Metrics),
	}
	if o.artifacts {
		if err := paths.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("failed to ensure directories: %w", err)
		}
		serviceOpts = append(serviceOpts,
			services.WithExporter(exporter.NewArtifactExporter(paths, cfg.Analysis, a.Logger)))
	}

	a.Analysis, err = services.NewAnalysisService(cfg.Analysis, a.Logger, serviceOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis service: %w", err)
	}

	var healthPaths *config.Paths
	if o.artifacts {
		healthPaths = paths
	}
	a.Health = services.NewHealthService(healthPaths, a.Logger)

	a.Router = handlers.NewRouter(handlers.RouterDeps{
		Server:         cfg.Server,
		Analysis:       cfg.Analysis,
		Analyzer:       a.Analysis,
		Health:         a.Health,
		Tracer:         providers.Tracer,
		Metrics:        a.Metrics,
		MetricsHandler: providers.PrometheusHTTP,
		Logger:         a.Logger,
		Development:    cfg.Logging.Development,
	})

	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (a *Application) Serve(ctx context.Context, l net.Listener) error {
	a.Logger.InfoContext(ctx, "server listening",
		slog.String("address", l.Addr().String()),
		slog.Bool("metrics", a.OTelProviders.PrometheusHTTP != nil))

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Server.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "shutdown requested")
	}

	return a.Stop(context.Background())
}

// Stop gracefully stops the server and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// Close flushes telemetry and closes the log file. Binaries that never
// start the server call it directly.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown error: %w", err))
		}
	}
	if a.ownsLogger {
		if err := infrastructure.CloseLogFile(); err != nil {
			errs = append(errs, fmt.Errorf("log file close error: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run listens on the configured port until SIGINT or SIGTERM.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, l)
}
