package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mrops-br/instafiche/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/mrops-br/instafiche"

// Telemetry holds all OpenTelemetry components
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Registry       *prometheus.Registry
	Logger         *slog.Logger
}

// NewTelemetry initializes all OpenTelemetry components. Traces and metrics
// are pushed over OTLP only when an endpoint is configured; metrics are
// always readable through MetricsHandler.
func NewTelemetry(ctx context.Context, cfg *config.OTLPConfig) (*Telemetry, error) {
	logger := initLogger(cfg)

	logger.Debug("Initializing OpenTelemetry",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("service_name", cfg.ServiceName),
		slog.Bool("otlp_enabled", cfg.Enabled()),
	)

	res := newResource(cfg)

	tp, err := initTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	otel.SetTracerProvider(tp)

	registry := prometheus.NewRegistry()
	mp, err := initMeterProvider(ctx, cfg, res, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	otel.SetMeterProvider(mp)

	logger.Debug("Telemetry initialized successfully")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Registry:       registry,
		Logger:         logger,
	}, nil
}

// NewNoOpTelemetry creates a telemetry instance that exports nothing and
// logs to the given logger.
func NewNoOpTelemetry(logger *slog.Logger) *Telemetry {
	tp := sdktrace.NewTracerProvider()
	mp := metric.NewMeterProvider()

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Registry:       prometheus.NewRegistry(),
		Logger:         logger,
	}
}

// Tracer returns the application tracer
func (t *Telemetry) Tracer() trace.Tracer {
	return t.TracerProvider.Tracer(instrumentationName)
}

// Meter returns the application meter
func (t *Telemetry) Meter() otelmetric.Meter {
	return t.MeterProvider.Meter(instrumentationName)
}

// MetricsHandler serves the Prometheus registry
func (t *Telemetry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down all telemetry components
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.Logger.Debug("Shutting down OpenTelemetry")

	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown tracer provider", slog.String("error", err.Error()))
		return err
	}

	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown meter provider", slog.String("error", err.Error()))
		return err
	}

	return nil
}
