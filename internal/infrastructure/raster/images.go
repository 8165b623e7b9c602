package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

var (
	ErrImageUnavailable = errors.New("image unavailable")
	ErrImageDecode      = errors.New("image decode failed")
)

// ImageLoader fetches and decodes the images of a surface. Loads that do not
// bypass caches are kept in an LRU so the live preview does not refetch.
type ImageLoader struct {
	client *http.Client
	cache  *lru.Cache
	now    func() time.Time
	tracer trace.Tracer
	logger *slog.Logger
}

// NewImageLoader creates a loader keeping up to cacheSize decoded images.
func NewImageLoader(client *http.Client, cacheSize int, tracer trace.Tracer, logger *slog.Logger) (*ImageLoader, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ImageLoader{
		client: client,
		cache:  cache,
		now:    time.Now,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Load decodes every source concurrently. The first failure aborts the rest.
func (l *ImageLoader) Load(ctx context.Context, sources []string, cacheBust bool) (map[string]image.Image, error) {
	ctx, span := l.tracer.Start(ctx, "ImageLoader.Load")
	defer span.End()

	span.SetAttributes(
		attribute.Int("images.count", len(sources)),
		attribute.Bool("images.cache_bust", cacheBust),
	)

	decoded := make([]image.Image, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			img, err := l.load(gctx, src, cacheBust)
			if err != nil {
				return err
			}
			decoded[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load images")
		l.logger.WarnContext(ctx, "Failed to load card images",
			slog.Int("count", len(sources)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	out := make(map[string]image.Image, len(sources))
	for i, src := range sources {
		out[src] = decoded[i]
	}

	span.SetStatus(codes.Ok, "images loaded")
	return out, nil
}

func (l *ImageLoader) load(ctx context.Context, src string, cacheBust bool) (image.Image, error) {
	if strings.HasPrefix(src, "data:") {
		data, _, err := decodeDataURI(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, shorten(src), err)
		}
		return decodeImage(src, data)
	}

	if !cacheBust {
		if cached, ok := l.cache.Get(src); ok {
			return cached.(image.Image), nil
		}
	}

	target := src
	if cacheBust {
		target = bust(src, l.now())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageUnavailable, shorten(src), err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageUnavailable, shorten(src), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrImageUnavailable, shorten(src), resp.Status)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageUnavailable, shorten(src), err)
	}

	img, err := decodeImage(src, buf.Bytes())
	if err != nil {
		return nil, err
	}

	if !cacheBust {
		l.cache.Add(src, img)
	}
	return img, nil
}

func decodeImage(src string, data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, shorten(src), err)
	}
	return img, nil
}

// bust appends a timestamp query parameter so intermediaries serve a fresh copy.
func bust(src string, now time.Time) string {
	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return src + sep + strconv.FormatInt(now.UnixMilli(), 10)
}
