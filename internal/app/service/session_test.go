package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mrops-br/instafiche/internal/app/editor"
	"github.com/mrops-br/instafiche/internal/app/export"
	"github.com/mrops-br/instafiche/internal/app/service"
	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/mrops-br/instafiche/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type counterIDs struct{ next int64 }

func (c *counterIDs) NextID() int64 {
	c.next++
	return c.next
}

type stubRaster struct {
	calls int
}

func (r *stubRaster) Rasterize(context.Context, export.Surface, export.Options) ([]byte, error) {
	r.calls++
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}

type fixture struct {
	session *service.Session
	store   *memory.SnapshotStore
	raster  *stubRaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fonts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte("/* no remote fonts */"))
	}))
	t.Cleanup(fonts.Close)

	tracer := tracenoop.NewTracerProvider().Tracer("test")
	meter := metricnoop.NewMeterProvider().Meter("test")
	ctx := context.Background()

	store := memory.NewSnapshotStore()
	repo := memory.NewProductRepository(ctx, store, &counterIDs{next: 1000}, tracer, testLogger)
	products := service.NewProductService(repo, tracer, meter, testLogger)

	cfg := export.DefaultConfig()
	cfg.FontCSSURL = fonts.URL
	raster := &stubRaster{}
	pipeline := export.NewPipeline(cfg, fonts.Client(), raster, tracer, meter, testLogger)

	session := service.NewSession(products, pipeline, tracer, testLogger)
	require.NoError(t, session.Load(ctx))
	return &fixture{session: session, store: store, raster: raster}
}

func answer(ok bool) service.Confirmer {
	return service.ConfirmFunc(func(context.Context, string, domain.Product) (bool, error) {
		return ok, nil
	})
}

func TestLoadSelectsFirstProduct(t *testing.T) {
	f := newFixture(t)

	p, ok := f.session.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, domain.AspectSquare, f.session.AspectRatio())
	assert.Equal(t, "Niacinamide 10% + Zinc 1%", f.session.Form().Draft(editor.FieldName))
	assert.False(t, f.session.Busy())
}

func TestSoldOutToggleSuppressesPromotionAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.Select(ctx, 4))
	require.NotNil(t, f.session.Tree().Find("promotion"))

	require.NoError(t, f.session.Form().Set(ctx, editor.FieldSoldOut, "true"))

	tree := f.session.Tree()
	assert.Nil(t, tree.Find("promotion"))
	assert.NotNil(t, tree.Find("sold-out"))

	stored, err := f.store.Load(ctx)
	require.NoError(t, err)
	for _, p := range stored {
		if p.ID == 4 {
			assert.True(t, p.SoldOut)
			require.NotNil(t, p.PromotionText)
			assert.Equal(t, "NEW", *p.PromotionText)
		}
	}
}

func TestBlurCommitRefreshesCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.session.Form()

	require.NoError(t, form.Set(ctx, editor.FieldName, "Renamed"))
	assert.Contains(t, f.session.Tree().Texts(), "Niacinamide 10% + Zinc 1%")

	require.NoError(t, form.Blur(ctx, editor.FieldName))
	assert.Contains(t, f.session.Tree().Texts(), "Renamed")

	p, _ := f.session.Selected()
	assert.Equal(t, "Renamed", p.Name)
}

func TestSelectResetsCarousel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.session.NextImage()
	assert.Equal(t, 1, f.session.ImageIndex())

	require.NoError(t, f.session.Select(ctx, 2))
	assert.Equal(t, 0, f.session.ImageIndex())

	f.session.PreviousImage()
	assert.Equal(t, 1, f.session.ImageIndex())
	assert.False(t, f.session.SelectImage(5))
	assert.True(t, f.session.HasCarousel())

	assert.ErrorIs(t, f.session.Select(ctx, 999), domain.ErrProductNotFound)
}

func TestNewProductIsSelected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.session.NewProduct(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), p.ID)

	id := f.session.SelectedID()
	require.NotNil(t, id)
	assert.Equal(t, p.ID, *id)
	assert.Equal(t, "New Product", f.session.Form().Draft(editor.FieldName))

	products, err := f.session.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 5)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deleted, err := f.session.DeleteProduct(ctx, 1, answer(false))
	require.NoError(t, err)
	assert.False(t, deleted)
	products, _ := f.session.Products(ctx)
	assert.Len(t, products, 4)

	var prompt string
	deleted, err = f.session.DeleteProduct(ctx, 1, service.ConfirmFunc(func(_ context.Context, q string, p domain.Product) (bool, error) {
		prompt = q
		assert.Equal(t, int64(1), p.ID)
		return true, nil
	}))
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, service.DeletePrompt, prompt)

	assert.Nil(t, f.session.SelectedID())
	assert.False(t, f.session.Form().Selected())
	assert.Nil(t, f.session.Tree())
}

func TestDeleteOtherProductKeepsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deleted, err := f.session.DeleteProduct(ctx, 3, answer(true))
	require.NoError(t, err)
	assert.True(t, deleted)

	id := f.session.SelectedID()
	require.NotNil(t, id)
	assert.Equal(t, int64(1), *id)

	deleted, err = f.session.DeleteProduct(ctx, 3, answer(true))
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = f.session.DeleteProduct(ctx, 2, service.ConfirmFunc(func(context.Context, string, domain.Product) (bool, error) {
		return false, errors.New("dialog closed")
	}))
	assert.Error(t, err)
}

func TestExportUsesSelectionAndRatio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.session.Select(ctx, 3))
	require.NoError(t, f.session.SetAspectRatio(domain.AspectStory))
	assert.Error(t, f.session.SetAspectRatio("2:3"))

	var got *export.Download
	d, err := f.session.Export(ctx, export.SinkFunc(func(_ context.Context, d *export.Download) error {
		got = d
		return nil
	}))
	require.NoError(t, err)
	assert.Same(t, d, got)
	assert.Equal(t, "glycolic-acid-7%-toning-solution-reel-story.jpg", d.Filename)
	assert.Equal(t, 1, f.raster.calls)
}

func TestExportWithoutSelectionIsRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3, 4} {
		_, err := f.session.DeleteProduct(ctx, id, answer(true))
		require.NoError(t, err)
	}

	_, err := f.session.Export(ctx, nil)
	assert.ErrorIs(t, err, export.ErrPrecondition)
	assert.Equal(t, 0, f.raster.calls)

	_, err = f.session.Preview(ctx)
	assert.ErrorIs(t, err, export.ErrPrecondition)
}
