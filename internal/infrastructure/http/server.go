package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mrops-br/instafiche/internal/infrastructure/config"
	"github.com/mrops-br/instafiche/internal/infrastructure/http/handler"
	"github.com/mrops-br/instafiche/internal/infrastructure/http/middleware"
	"github.com/mrops-br/instafiche/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const shutdownTimeout = 5 * time.Second

// Server represents the local editor HTTP server
type Server struct {
	router    *chi.Mux
	config    *config.ServerConfig
	editor    *handler.EditorHandler
	page      *handler.PageHandler
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.ServerConfig,
	editor *handler.EditorHandler,
	page *handler.PageHandler,
	logger *slog.Logger,
	telem *telemetry.Telemetry,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		editor:    editor,
		page:      page,
		logger:    logger,
		telemetry: telem,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware chain
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.RequestID)

	// The editor holds local files and uploads; it only answers this machine
	s.router.Use(middleware.LoopbackOnly(s.logger))

	s.router.Use(middleware.HTTPRouteContext())
	s.router.Use(middleware.ActiveRequestsMiddleware(s.telemetry.Meter()))
}

// setupRoutes configures the editor routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.page.Editor)
	s.router.Get("/preview.jpg", s.editor.Preview)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/state", s.editor.State)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", s.editor.CreateProduct)
			r.Post("/{id}/select", s.editor.SelectProduct)
			r.Delete("/{id}", s.editor.DeleteProduct)
		})

		r.Route("/form/{field}", func(r chi.Router) {
			r.Put("/", s.editor.SetField)
			r.Post("/blur", s.editor.BlurField)
		})

		r.Post("/images", s.editor.AddImage)
		r.Delete("/images/{index}", s.editor.DeleteImage)
		r.Post("/logo", s.editor.SetLogo)
		r.Delete("/logo", s.editor.ClearLogo)

		r.Put("/aspect-ratio", s.editor.SetAspectRatio)

		r.Route("/carousel", func(r chi.Router) {
			r.Post("/next", s.editor.NextImage)
			r.Post("/previous", s.editor.PreviousImage)
			r.Post("/{index}", s.editor.SelectImage)
		})

		r.Post("/export", s.editor.Export)
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint - exposes OpenTelemetry metrics
	s.router.Get("/metrics", s.telemetry.MetricsHandler().ServeHTTP)
}

// Handler returns the router wrapped with otelhttp for HTTP metrics and tracing
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "editor",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithTracerProvider(s.telemetry.TracerProvider),
		otelhttp.WithMeterProvider(s.telemetry.MeterProvider),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("http.route", middleware.RoutePattern(r)),
			}
		}),
	)
}

// Addr is the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, s.config.Port)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server",
		slog.String("address", srv.Addr),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
