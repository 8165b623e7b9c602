// Package export captures a rendered card as a standalone JPEG file.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/instafiche/internal/app/scene"
	"github.com/mrops-br/instafiche/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Surface is a rendered visual tree ready to be captured
type Surface interface {
	Size() (width, height float64)
	Root() *scene.Node
	Sources() []string
}

// Options control a single rasterisation
type Options struct {
	CacheBust    bool
	PixelRatio   float64
	FontEmbedCSS string
	Quality      float64
}

// Rasterizer converts a surface into JPEG bytes
type Rasterizer interface {
	Rasterize(ctx context.Context, surface Surface, opts Options) ([]byte, error)
}

// Config holds the geometry and resources of an export
type Config struct {
	FontCSSURL  string
	BaseWidth   float64
	TargetWidth float64
	Quality     float64
}

// DefaultConfig matches the card's on-screen width and a 1080px target
func DefaultConfig() Config {
	return Config{
		FontCSSURL:  DefaultFontCSSURL,
		BaseWidth:   500,
		TargetWidth: 1080,
		Quality:     0.95,
	}
}

// State is the pipeline state observed by the UI
type State int32

const (
	StateIdle State = iota
	StateCapturing
)

func (s State) String() string {
	if s == StateCapturing {
		return "capturing"
	}
	return "idle"
}

// Request describes what to export
type Request struct {
	Product     *domain.Product
	Surface     Surface
	AspectRatio domain.AspectRatio
	Sink        Sink
}

// Pipeline runs exports one at a time
type Pipeline struct {
	cfg      Config
	fonts    *FontEmbedder
	raster   Rasterizer
	state    atomic.Int32
	fontCSS  atomic.Value
	tracer   trace.Tracer
	logger   *slog.Logger
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

// NewPipeline creates a pipeline
func NewPipeline(
	cfg Config,
	client *http.Client,
	raster Rasterizer,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *Pipeline {
	attempts, _ := meter.Int64Counter(
		"instafiche.export.attempts",
		metric.WithDescription("Total number of export attempts by result"),
	)

	duration, _ := meter.Float64Histogram(
		"instafiche.export.duration",
		metric.WithDescription("Duration of completed export attempts"),
		metric.WithUnit("s"),
	)

	return &Pipeline{
		cfg:      cfg,
		fonts:    NewFontEmbedder(client, cfg.FontCSSURL, tracer, logger),
		raster:   raster,
		tracer:   tracer,
		logger:   logger,
		attempts: attempts,
		duration: duration,
	}
}

// State reports whether an export is running
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Busy is true while an export is capturing
func (p *Pipeline) Busy() bool {
	return p.State() == StateCapturing
}

// Export embeds fonts, rasterises the surface at the target width and
// delivers the JPEG. A second call while one is running fails with ErrBusy
// and is not queued.
func (p *Pipeline) Export(ctx context.Context, req Request) (*Download, error) {
	if req.Product == nil || req.Surface == nil || req.Surface.Root() == nil {
		p.logger.ErrorContext(ctx, "Download preconditions not met: missing card surface or selected product")
		p.record(ctx, "refused")
		return nil, ErrPrecondition
	}

	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateCapturing)) {
		p.logger.WarnContext(ctx, "Export rejected, another export is running")
		p.record(ctx, "busy")
		return nil, ErrBusy
	}
	defer p.state.Store(int32(StateIdle))

	exportID := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "Pipeline.Export")
	defer span.End()

	span.SetAttributes(
		attribute.String("export.id", exportID),
		attribute.Int64("product.id", req.Product.ID),
		attribute.String("export.aspect_ratio", req.AspectRatio.String()),
	)

	logger := p.logger.With(slog.String("export_id", exportID))
	logger.InfoContext(ctx, "Export started",
		slog.Int64("product_id", req.Product.ID),
		slog.String("aspect_ratio", req.AspectRatio.String()),
	)

	start := time.Now()
	download, stage, err := p.run(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		failure := &Failure{ExportID: exportID, Stage: stage, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Export failed")
		logger.ErrorContext(ctx, "Download failed",
			slog.String("stage", string(stage)),
			slog.String("error", err.Error()),
		)
		p.record(ctx, "failure")
		p.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("result", "failure")))
		return nil, failure
	}

	p.record(ctx, "success")
	p.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("result", "success")))

	logger.InfoContext(ctx, "Export completed",
		slog.String("filename", download.Filename),
		slog.Int("bytes", len(download.Data)),
		slog.String("duration", elapsed.String()),
	)

	span.SetStatus(codes.Ok, "Export completed")
	return download, nil
}

// Preview rasterises the surface at its on-screen size for the live editor.
// It ignores the export state, keeps caches and never fetches fonts: faces
// embedded by the last successful export are reused when there is one.
func (p *Pipeline) Preview(ctx context.Context, surface Surface) ([]byte, error) {
	if surface == nil || surface.Root() == nil {
		return nil, ErrPrecondition
	}
	css, _ := p.fontCSS.Load().(string)
	return p.raster.Rasterize(ctx, surface, Options{
		PixelRatio:   1,
		FontEmbedCSS: css,
		Quality:      p.cfg.Quality,
	})
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Download, Stage, error) {
	css, err := p.fonts.Embed(ctx)
	if err != nil {
		return nil, StageFonts, err
	}
	p.fontCSS.Store(css)

	ratio, err := PixelRatio(p.cfg.BaseWidth, p.cfg.TargetWidth)
	if err != nil {
		return nil, StageGeometry, err
	}

	data, err := p.raster.Rasterize(ctx, req.Surface, Options{
		CacheBust:    true,
		PixelRatio:   ratio,
		FontEmbedCSS: css,
		Quality:      p.cfg.Quality,
	})
	if err != nil {
		return nil, StageRasterize, fmt.Errorf("failed to rasterize card: %w", err)
	}

	download := &Download{
		Filename:    Filename(req.Product.Name, req.AspectRatio),
		ContentType: "image/jpeg",
		Data:        data,
	}

	if req.Sink != nil {
		if err := req.Sink.Deliver(ctx, download); err != nil {
			return nil, StageDeliver, err
		}
	}
	return download, "", nil
}

func (p *Pipeline) record(ctx context.Context, result string) {
	p.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
