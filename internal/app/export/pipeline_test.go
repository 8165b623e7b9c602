package export_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mrops-br/instafiche/internal/app/card"
	"github.com/mrops-br/instafiche/internal/app/export"
	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fontServer serves a stylesheet referencing two fonts, one of them twice.
type fontServer struct {
	*httptest.Server
	failFont atomic.Bool
	failCSS  atomic.Bool
	hits     sync.Map
}

func newFontServer(t *testing.T) *fontServer {
	t.Helper()
	fs := &fontServer{}
	fs.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := fs.hits.LoadOrStore(r.URL.Path, new(atomic.Int32))
		n.(*atomic.Int32).Add(1)

		switch r.URL.Path {
		case "/css":
			if fs.failCSS.Load() {
				http.Error(w, "blocked", http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
			fmt.Fprintf(w, "@font-face { font-family: 'Inter'; src: url(%[1]s/inter.ttf) format('truetype'); }\n"+
				"@font-face { font-family: 'Cairo'; src: url(%[1]s/cairo.ttf) format('truetype'); }\n"+
				"@font-face { font-family: 'Inter'; font-weight: 700; src: url(%[1]s/inter.ttf) format('truetype'); }\n", fs.URL)
		case "/inter.ttf":
			w.Header().Set("Content-Type", "font/ttf")
			_, _ = w.Write([]byte("inter-bytes"))
		case "/cairo.ttf":
			if fs.failFont.Load() {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "font/ttf")
			_, _ = w.Write([]byte("cairo-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fontServer) count(path string) int32 {
	n, ok := fs.hits.Load(path)
	if !ok {
		return 0
	}
	return n.(*atomic.Int32).Load()
}

func TestFontURLs(t *testing.T) {
	css := "src: url(https://a/x.ttf); src: url(http://insecure/y.ttf); src: url(https://a/x.ttf); src: url(https://b/z.woff2)"
	assert.Equal(t, []string{"https://a/x.ttf", "https://b/z.woff2"}, export.FontURLs(css))
}

func TestEmbedSubstitutesEveryFont(t *testing.T) {
	fs := newFontServer(t)
	e := export.NewFontEmbedder(fs.Client(), fs.URL+"/css", tracenoop.NewTracerProvider().Tracer("test"), testLogger)

	css, err := e.Embed(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, css, "https://")
	assert.Equal(t, 2, strings.Count(css, export.DataURI("font/ttf", []byte("inter-bytes"))))
	assert.Equal(t, 1, strings.Count(css, export.DataURI("font/ttf", []byte("cairo-bytes"))))
	assert.Equal(t, int32(1), fs.count("/inter.ttf"), "duplicate references are fetched once")
}

func TestEmbedKeepsURLsThatShareAPrefix(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/css":
			fmt.Fprintf(w, "@font-face { font-family: 'A'; src: url(%[1]s/f.woff); }\n"+
				"@font-face { font-family: 'B'; src: url(%[1]s/f.woff2); }\n", "https://"+r.Host)
		case "/f.woff":
			w.Header().Set("Content-Type", "font/woff")
			_, _ = w.Write([]byte("woff-bytes"))
		case "/f.woff2":
			w.Header().Set("Content-Type", "font/woff2")
			_, _ = w.Write([]byte("woff2-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	e := export.NewFontEmbedder(srv.Client(), srv.URL+"/css", tracenoop.NewTracerProvider().Tracer("test"), testLogger)

	css, err := e.Embed(context.Background())
	require.NoError(t, err)

	woff := export.DataURI("font/woff", []byte("woff-bytes"))
	woff2 := export.DataURI("font/woff2", []byte("woff2-bytes"))
	assert.Contains(t, css, "font-family: 'A'; src: url("+woff+");")
	assert.Contains(t, css, "font-family: 'B'; src: url("+woff2+");")
	assert.NotContains(t, css, "https://")
}

func TestEmbedAbortsOnFontFailure(t *testing.T) {
	fs := newFontServer(t)
	fs.failFont.Store(true)
	e := export.NewFontEmbedder(fs.Client(), fs.URL+"/css", tracenoop.NewTracerProvider().Tracer("test"), testLogger)

	css, err := e.Embed(context.Background())
	require.Error(t, err)
	assert.Empty(t, css)
	assert.ErrorIs(t, err, export.ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "cairo.ttf")
}

func TestEmbedAbortsOnStylesheetFailure(t *testing.T) {
	fs := newFontServer(t)
	fs.failCSS.Store(true)
	e := export.NewFontEmbedder(fs.Client(), fs.URL+"/css", tracenoop.NewTracerProvider().Tracer("test"), testLogger)

	_, err := e.Embed(context.Background())
	require.ErrorIs(t, err, export.ErrUnexpectedStatus)
	assert.Equal(t, int32(0), fs.count("/inter.ttf"))
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:font/woff2;base64,AAE=", export.DataURI("font/woff2", []byte{0, 1}))
	assert.Equal(t, "data:text/css;base64,AA==", export.DataURI("text/css; charset=utf-8", []byte{0}))
	assert.Equal(t, "data:application/octet-stream;base64,AA==", export.DataURI("", []byte{0}))
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		ratio domain.AspectRatio
		want  string
	}{
		{"Hyaluronic Acid 2% + B5", domain.AspectPortrait, "hyaluronic-acid-2%-+-b5-portrait.jpg"},
		{"Lash Curl Finisher", domain.AspectSquare, "lash-curl-finisher-square.jpg"},
		{"  Niacinamide\t10%\n+ Zinc  ", domain.AspectStory, "-niacinamide-10%-+-zinc--reel-story.jpg"},
		{"", domain.AspectSquare, "-square.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, export.Filename(tt.name, tt.ratio))
		})
	}
}

func TestPixelRatio(t *testing.T) {
	r, err := export.PixelRatio(500, 1080)
	require.NoError(t, err)
	assert.Equal(t, 2.16, r)

	r, err = export.PixelRatio(350, 1080)
	require.NoError(t, err)
	assert.InDelta(t, 3.0857, r, 1e-4)

	_, err = export.PixelRatio(0, 1080)
	assert.ErrorIs(t, err, export.ErrInvalidGeometry)
}

type fakeRaster struct {
	mu      sync.Mutex
	calls   []export.Options
	release chan struct{}
	started chan struct{}
	err     error
}

func (f *fakeRaster) Rasterize(_ context.Context, _ export.Surface, opts export.Options) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0xff, 0xd8, 0xff}, nil
}

func newPipeline(fs *fontServer, raster export.Rasterizer) *export.Pipeline {
	cfg := export.DefaultConfig()
	cfg.FontCSSURL = fs.URL + "/css"
	return export.NewPipeline(cfg, fs.Client(), raster,
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"),
		testLogger)
}

func seedRequest(sink export.Sink) export.Request {
	p := domain.SeedProducts()[1]
	return export.Request{
		Product:     &p,
		Surface:     card.Render(p, domain.AspectPortrait, 0),
		AspectRatio: domain.AspectPortrait,
		Sink:        sink,
	}
}

func TestExportSuccess(t *testing.T) {
	fs := newFontServer(t)
	raster := &fakeRaster{}
	pipeline := newPipeline(fs, raster)

	var delivered *export.Download
	sink := export.SinkFunc(func(_ context.Context, d *export.Download) error {
		assert.Equal(t, export.StateCapturing, pipeline.State(), "delivery happens while capturing")
		delivered = d
		return nil
	})

	d, err := pipeline.Export(context.Background(), seedRequest(sink))
	require.NoError(t, err)

	assert.Same(t, d, delivered)
	assert.Equal(t, "hyaluronic-acid-2%-+-b5-portrait.jpg", d.Filename)
	assert.Equal(t, "image/jpeg", d.ContentType)
	assert.True(t, strings.HasPrefix(d.DataURI(), "data:image/jpeg;base64,"))
	assert.Equal(t, export.StateIdle, pipeline.State())

	require.Len(t, raster.calls, 1)
	opts := raster.calls[0]
	assert.True(t, opts.CacheBust)
	assert.Equal(t, 2.16, opts.PixelRatio)
	assert.Equal(t, 0.95, opts.Quality)
	assert.NotContains(t, opts.FontEmbedCSS, "https://")
	assert.Contains(t, opts.FontEmbedCSS, "data:font/ttf;base64,")
}

func TestExportRefusesWithoutSelection(t *testing.T) {
	fs := newFontServer(t)
	raster := &fakeRaster{}
	pipeline := newPipeline(fs, raster)

	req := seedRequest(nil)
	req.Product = nil
	_, err := pipeline.Export(context.Background(), req)
	assert.ErrorIs(t, err, export.ErrPrecondition)

	req = seedRequest(nil)
	req.Surface = nil
	_, err = pipeline.Export(context.Background(), req)
	assert.ErrorIs(t, err, export.ErrPrecondition)

	assert.Empty(t, raster.calls)
	assert.Equal(t, int32(0), fs.count("/css"))
	assert.Equal(t, export.StateIdle, pipeline.State())
}

func TestExportRejectsReentry(t *testing.T) {
	fs := newFontServer(t)
	raster := &fakeRaster{release: make(chan struct{}), started: make(chan struct{})}
	pipeline := newPipeline(fs, raster)

	done := make(chan error, 1)
	go func() {
		_, err := pipeline.Export(context.Background(), seedRequest(nil))
		done <- err
	}()

	<-raster.started
	assert.True(t, pipeline.Busy())

	_, err := pipeline.Export(context.Background(), seedRequest(nil))
	assert.ErrorIs(t, err, export.ErrBusy)

	close(raster.release)
	require.NoError(t, <-done)
	assert.False(t, pipeline.Busy())
	assert.Len(t, raster.calls, 1, "the rejected request is not queued")
}

func TestExportFontFailureIsTerminal(t *testing.T) {
	fs := newFontServer(t)
	fs.failFont.Store(true)
	raster := &fakeRaster{}
	pipeline := newPipeline(fs, raster)

	_, err := pipeline.Export(context.Background(), seedRequest(nil))
	require.Error(t, err)

	var failure *export.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, export.StageFonts, failure.Stage)
	assert.NotEmpty(t, failure.ExportID)
	assert.Contains(t, failure.UserMessage(), "CORS")
	assert.Contains(t, failure.UserMessage(), "Change Logo")
	assert.Contains(t, failure.UserMessage(), "cairo.ttf")

	assert.Empty(t, raster.calls, "nothing is rasterized from a partial stylesheet")
	assert.Equal(t, export.StateIdle, pipeline.State())
}

func TestExportRasterFailure(t *testing.T) {
	fs := newFontServer(t)
	pipeline := newPipeline(fs, &fakeRaster{err: fmt.Errorf("image blocked")})

	_, err := pipeline.Export(context.Background(), seedRequest(nil))

	var failure *export.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, export.StageRasterize, failure.Stage)
	assert.False(t, pipeline.Busy())
}

func TestDirSink(t *testing.T) {
	dir := t.TempDir()
	d := &export.Download{Filename: "card-square.jpg", ContentType: "image/jpeg", Data: []byte{1, 2, 3}}

	require.NoError(t, export.DirSink{Dir: dir}.Deliver(context.Background(), d))
	assert.FileExists(t, dir+"/card-square.jpg")
}

func TestPreviewReusesEmbeddedFonts(t *testing.T) {
	fs := newFontServer(t)
	raster := &fakeRaster{}
	pipeline := newPipeline(fs, raster)
	ctx := context.Background()
	req := seedRequest(nil)

	_, err := pipeline.Preview(ctx, req.Surface)
	require.NoError(t, err)
	assert.Equal(t, int32(0), fs.count("/css"), "preview never fetches fonts")

	_, err = pipeline.Export(ctx, req)
	require.NoError(t, err)

	_, err = pipeline.Preview(ctx, req.Surface)
	require.NoError(t, err)

	require.Len(t, raster.calls, 3)
	first, last := raster.calls[0], raster.calls[2]
	assert.False(t, first.CacheBust)
	assert.Equal(t, 1.0, first.PixelRatio)
	assert.Empty(t, first.FontEmbedCSS)
	assert.Contains(t, last.FontEmbedCSS, "data:font/ttf;base64,")

	_, err = pipeline.Preview(ctx, nil)
	assert.ErrorIs(t, err, export.ErrPrecondition)
}
