package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mrops-br/instafiche/internal/app/export"
	"github.com/mrops-br/instafiche/internal/app/service"
	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/mrops-br/instafiche/internal/infrastructure/config"
	"github.com/mrops-br/instafiche/internal/infrastructure/raster"
	"github.com/mrops-br/instafiche/internal/infrastructure/repository/bolt"
	"github.com/mrops-br/instafiche/internal/infrastructure/repository/memory"
	"github.com/mrops-br/instafiche/internal/infrastructure/telemetry"
	"github.com/spf13/cast"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// application wires every component of a running editor session
type application struct {
	cfg       *config.Config
	telemetry *telemetry.Telemetry
	logger    *slog.Logger
	store     domain.SnapshotStore
	session   *service.Session
	closers   []func() error
}

func newApplication(ctx context.Context, ephemeral bool) (*application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	telem, err := telemetry.NewTelemetry(ctx, &cfg.OTLP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a := &application{
		cfg:       cfg,
		telemetry: telem,
		logger:    telem.Logger,
	}

	tracer := telem.Tracer()
	meter := telem.Meter()
	logger := telem.Logger

	if ephemeral {
		a.store = memory.NewSnapshotStore()
	} else {
		store, err := bolt.Open(cfg.Store.Path, tracer, logger)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	}

	ids, err := memory.NewSnowflakeIDs(cfg.Store.NodeID)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	repo := memory.NewProductRepository(ctx, a.store, ids, tracer, logger)
	products := service.NewProductService(repo, tracer, meter, logger)

	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(telem.TracerProvider),
			otelhttp.WithMeterProvider(telem.MeterProvider),
		),
		Timeout: cast.ToDuration(cfg.Export.HTTPTimeout),
	}

	loader, err := raster.NewImageLoader(client, cfg.Export.ImageCacheSize, tracer, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	rasterizer := raster.NewRasterizer(loader, tracer, logger)

	pipeline := export.NewPipeline(export.Config{
		FontCSSURL:  cfg.Export.FontCSSURL,
		BaseWidth:   cfg.Export.BaseWidth,
		TargetWidth: cfg.Export.TargetWidth,
		Quality:     cfg.Export.Quality,
	}, client, rasterizer, tracer, meter, logger)

	a.session = service.NewSession(products, pipeline, tracer, logger)
	if err := a.session.Load(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	return a, nil
}

// Close releases the store and flushes telemetry
func (a *application) Close(ctx context.Context) {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Error("Failed to close resource", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error shutting down telemetry", slog.String("error", err.Error()))
	}
}
