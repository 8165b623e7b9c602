// Package raster paints scene trees into JPEG images with gg.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/mrops-br/instafiche/internal/app/export"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrEmptySurface = errors.New("surface has nothing to paint")

// Rasterizer implements export.Rasterizer
type Rasterizer struct {
	images *ImageLoader
	tracer trace.Tracer
	logger *slog.Logger
}

// NewRasterizer creates a rasterizer drawing images through loader
func NewRasterizer(loader *ImageLoader, tracer trace.Tracer, logger *slog.Logger) *Rasterizer {
	return &Rasterizer{
		images: loader,
		tracer: tracer,
		logger: logger,
	}
}

// Rasterize paints the surface and encodes it as JPEG
func (r *Rasterizer) Rasterize(ctx context.Context, surface export.Surface, opts export.Options) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "Rasterizer.Rasterize")
	defer span.End()

	start := time.Now()

	img, err := r.Render(ctx, surface, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render surface")
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(opts.Quality)}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode jpeg")
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	bounds := img.Bounds()
	span.SetAttributes(
		attribute.Int("image.width", bounds.Dx()),
		attribute.Int("image.height", bounds.Dy()),
		attribute.Int("image.bytes", buf.Len()),
	)
	span.SetStatus(codes.Ok, "surface rasterized")

	r.logger.DebugContext(ctx, "Surface rasterized",
		slog.Int("width", bounds.Dx()),
		slog.Int("height", bounds.Dy()),
		slog.Int("bytes", buf.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)

	return buf.Bytes(), nil
}

// Render paints the surface at opts.PixelRatio onto a white canvas.
func (r *Rasterizer) Render(ctx context.Context, surface export.Surface, opts export.Options) (image.Image, error) {
	root := surface.Root()
	if root == nil {
		return nil, ErrEmptySurface
	}

	scale := opts.PixelRatio
	if scale <= 0 {
		scale = 1
	}
	w, h := surface.Size()
	width, height := int(math.Round(w*scale)), int(math.Round(h*scale))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrEmptySurface, w, h)
	}

	fonts, err := ParseFontCSS(opts.FontEmbedCSS)
	if err != nil {
		return nil, err
	}
	defer fonts.Close()

	images, err := r.images.Load(ctx, surface.Sources(), opts.CacheBust)
	if err != nil {
		return nil, err
	}

	l := newLayouter(scale, fonts, images)
	if err := l.resolveFaces(root); err != nil {
		return nil, err
	}

	var laid *box
	if f := root.Frame; !f.Empty() {
		laid = l.place(root, l.px(f.X), l.px(f.Y), l.px(f.W), l.px(f.H))
	} else {
		laid = l.place(root, 0, 0, float64(width), float64(height))
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	p := &painter{scale: scale}
	p.paint(&canvas{dc: dc}, laid)

	return dc.Image(), nil
}

func jpegQuality(q float64) int {
	if q <= 0 || q > 1 {
		return 92
	}
	return int(math.Max(1, math.Round(q*100)))
}
