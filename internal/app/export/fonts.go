package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultFontCSSURL describes the Latin (Inter) and Arabic (Cairo) faces used by the card.
const DefaultFontCSSURL = "https://fonts.googleapis.com/css2?family=Cairo:wght@400;700&family=Inter:wght@400;500;600;700;800&display=swap"

var fontURLPattern = regexp.MustCompile(`url\((https://[^)]+)\)`)

// FontURLs lists the distinct remote resources referenced by a stylesheet,
// in order of first appearance.
func FontURLs(css string) []string {
	var urls []string
	seen := map[string]bool{}
	for _, m := range fontURLPattern.FindAllStringSubmatch(css, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			urls = append(urls, m[1])
		}
	}
	return urls
}

// FontEmbedder turns a hosted font stylesheet into a self-contained one
type FontEmbedder struct {
	client *http.Client
	url    string
	tracer trace.Tracer
	logger *slog.Logger
}

// NewFontEmbedder creates an embedder for the stylesheet at url
func NewFontEmbedder(client *http.Client, url string, tracer trace.Tracer, logger *slog.Logger) *FontEmbedder {
	return &FontEmbedder{
		client: client,
		url:    url,
		tracer: tracer,
		logger: logger,
	}
}

// Embed fetches the stylesheet and every font it references, then replaces
// each reference with a data URI. Substitution only happens once all fonts
// are fetched; any failure aborts with no partial result.
func (e *FontEmbedder) Embed(ctx context.Context) (string, error) {
	ctx, span := e.tracer.Start(ctx, "FontEmbedder.Embed")
	defer span.End()

	span.SetAttributes(attribute.String("font.stylesheet", e.url))

	body, _, err := fetch(ctx, e.client, e.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Stylesheet fetch failed")
		return "", fmt.Errorf("failed to fetch font CSS: %w", err)
	}
	css := string(body)

	urls := FontURLs(css)
	span.SetAttributes(attribute.Int("font.count", len(urls)))

	dataURIs := make([]string, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			data, contentType, err := fetch(gctx, e.client, u)
			if err != nil {
				return fmt.Errorf("failed to fetch font file %s: %w", u, err)
			}
			dataURIs[i] = DataURI(contentType, data)
			e.logger.DebugContext(gctx, "Font embedded",
				slog.String("url", u),
				slog.Int("bytes", len(data)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Font fetch failed")
		return "", err
	}

	byURL := make(map[string]string, len(urls))
	for i, u := range urls {
		byURL[u] = dataURIs[i]
	}
	css = fontURLPattern.ReplaceAllStringFunc(css, func(ref string) string {
		u := fontURLPattern.FindStringSubmatch(ref)[1]
		return strings.Replace(ref, u, byURL[u], 1)
	})

	e.logger.InfoContext(ctx, "Font stylesheet embedded",
		slog.Int("fonts", len(urls)),
		slog.Int("bytes", len(css)),
	)

	span.SetStatus(codes.Ok, "Fonts embedded")
	return css, nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(contentType string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	} else {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}
