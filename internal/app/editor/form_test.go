package editor_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mrops-br/instafiche/internal/app/editor"
	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type recorder struct {
	upserts []domain.Product
	err     error
}

func (r *recorder) Upsert(_ context.Context, p domain.Product) error {
	if r.err != nil {
		return r.err
	}
	r.upserts = append(r.upserts, p.Clone())
	return nil
}

func newForm(t *testing.T) (*editor.Form, *recorder) {
	t.Helper()
	rec := &recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return editor.NewForm(rec, noop.NewTracerProvider().Tracer("test"), logger), rec
}

func seeded(id int64) *domain.Product {
	for _, p := range domain.SeedProducts() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestFieldStrategies(t *testing.T) {
	for _, f := range []editor.Field{
		editor.FieldName, editor.FieldDescription, editor.FieldDescriptionAr,
		editor.FieldPrice, editor.FieldOriginalPrice, editor.FieldPromotionText,
	} {
		s, ok := f.Strategy()
		require.True(t, ok, f)
		assert.Equal(t, editor.CommitOnBlur, s, f)
	}

	s, ok := editor.FieldSoldOut.Strategy()
	require.True(t, ok)
	assert.Equal(t, editor.CommitOnChange, s)

	_, ok = editor.Field("colour").Strategy()
	assert.False(t, ok)
}

func TestSyncFillsDrafts(t *testing.T) {
	form, _ := newForm(t)
	assert.False(t, form.Selected())

	form.Sync(seeded(2))
	require.True(t, form.Selected())
	assert.Equal(t, "Hyaluronic Acid 2% + B5", form.Draft(editor.FieldName))
	assert.Equal(t, "237", form.Draft(editor.FieldPrice))
	assert.Equal(t, "299", form.Draft(editor.FieldOriginalPrice))
	assert.Equal(t, "BEST SELLER", form.Draft(editor.FieldPromotionText))
	assert.Equal(t, "false", form.Draft(editor.FieldSoldOut))
	assert.Len(t, form.Images(), 2)

	form.Sync(nil)
	assert.False(t, form.Selected())
	assert.Empty(t, form.Draft(editor.FieldName))
	_, err := form.Product()
	assert.ErrorIs(t, err, editor.ErrNoSelection)
}

func TestTextEditsCommitOnBlurOnly(t *testing.T) {
	form, rec := newForm(t)
	form.Sync(seeded(1))
	ctx := context.Background()

	require.NoError(t, form.Set(ctx, editor.FieldName, "Renamed"))
	assert.Empty(t, rec.upserts)

	require.NoError(t, form.Blur(ctx, editor.FieldName))
	require.Len(t, rec.upserts, 1)
	assert.Equal(t, "Renamed", rec.upserts[0].Name)

	require.NoError(t, form.Blur(ctx, editor.FieldSoldOut))
	assert.Len(t, rec.upserts, 1, "blur of a change-committed control does nothing")
}

func TestBlurNormalisesNumbers(t *testing.T) {
	cases := []struct {
		name          string
		price         string
		originalPrice string
		promotion     string
		wantPrice     float64
		wantOriginal  *float64
		wantPromotion *string
	}{
		{"garbage", "abc", "xyz", "", 0, nil, nil},
		{"empty", "", "", "", 0, nil, nil},
		{"prefix", "12.5 Dhs", "20abc", "NEW", 12.5, domain.Float(20), domain.String("NEW")},
		{"zero original kept", "10", "0", "", 10, domain.Float(0), nil},
		{"exponent", "1e2", ".5", "", 100, domain.Float(0.5), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form, rec := newForm(t)
			form.Sync(seeded(2))
			ctx := context.Background()

			require.NoError(t, form.Set(ctx, editor.FieldPrice, tc.price))
			require.NoError(t, form.Set(ctx, editor.FieldOriginalPrice, tc.originalPrice))
			require.NoError(t, form.Set(ctx, editor.FieldPromotionText, tc.promotion))
			require.NoError(t, form.Blur(ctx, editor.FieldPrice))

			require.Len(t, rec.upserts, 1)
			got := rec.upserts[0]
			assert.Equal(t, tc.wantPrice, got.Price)
			assert.Equal(t, tc.wantOriginal, got.OriginalPrice)
			assert.Equal(t, tc.wantPromotion, got.PromotionText)
		})
	}
}

func TestBlurResyncsDraftsFromCommittedRecord(t *testing.T) {
	form, _ := newForm(t)
	form.Sync(seeded(1))
	ctx := context.Background()

	require.NoError(t, form.Set(ctx, editor.FieldPrice, "abc"))
	require.NoError(t, form.Blur(ctx, editor.FieldPrice))
	assert.Equal(t, "0", form.Draft(editor.FieldPrice))
}

func TestSoldOutCommitsImmediatelyWithOnlyThatField(t *testing.T) {
	form, rec := newForm(t)
	form.Sync(seeded(1))
	ctx := context.Background()

	require.NoError(t, form.Set(ctx, editor.FieldName, "Uncommitted"))
	require.NoError(t, form.Set(ctx, editor.FieldSoldOut, "on"))

	require.Len(t, rec.upserts, 1)
	got := rec.upserts[0]
	assert.True(t, got.SoldOut)
	assert.Equal(t, "Niacinamide 10% + Zinc 1%", got.Name)

	require.NoError(t, form.Set(ctx, editor.FieldSoldOut, "false"))
	require.Len(t, rec.upserts, 2)
	assert.False(t, rec.upserts[1].SoldOut)

	assert.ErrorIs(t, form.Set(ctx, editor.FieldSoldOut, "maybe"), editor.ErrInvalidValue)
}

func TestUnknownFieldAndNoSelection(t *testing.T) {
	form, _ := newForm(t)
	ctx := context.Background()

	assert.ErrorIs(t, form.Set(ctx, "colour", "red"), editor.ErrUnknownField)
	assert.ErrorIs(t, form.Set(ctx, editor.FieldName, "x"), editor.ErrNoSelection)
	assert.ErrorIs(t, form.Blur(ctx, editor.FieldName), editor.ErrNoSelection)
	assert.ErrorIs(t, form.DeleteImage(ctx, 0), editor.ErrNoSelection)
	assert.ErrorIs(t, form.ClearLogo(ctx), editor.ErrNoSelection)
}

func TestAddAndDeleteImages(t *testing.T) {
	form, rec := newForm(t)
	form.Sync(seeded(1))
	ctx := context.Background()

	require.NoError(t, form.AddImage(ctx, bytes.NewReader(pngData(t)), "image/png"))
	require.Len(t, rec.upserts, 1)
	images := rec.upserts[0].Images
	require.Len(t, images, 3)
	assert.True(t, strings.HasPrefix(images[2], "data:image/png;base64,"))
	assert.Len(t, form.Images(), 3)

	require.NoError(t, form.DeleteImage(ctx, 0))
	require.Len(t, rec.upserts, 2)
	assert.Equal(t, images[1:], rec.upserts[1].Images)

	assert.ErrorIs(t, form.DeleteImage(ctx, 2), editor.ErrImageIndex)
	assert.ErrorIs(t, form.DeleteImage(ctx, -1), editor.ErrImageIndex)
	assert.Len(t, rec.upserts, 2)
}

func TestDeletingLastImageLeavesEmptyList(t *testing.T) {
	form, rec := newForm(t)
	p := seeded(1)
	p.Images = p.Images[:1]
	form.Sync(p)

	require.NoError(t, form.DeleteImage(context.Background(), 0))
	assert.Empty(t, rec.upserts[0].Images)
}

func TestAddImageRejectsOtherTypes(t *testing.T) {
	form, rec := newForm(t)
	form.Sync(seeded(1))

	err := form.AddImage(context.Background(), strings.NewReader("GIF89a......"), "image/gif")
	assert.ErrorIs(t, err, editor.ErrUnsupportedImage)

	err = form.AddImage(context.Background(), strings.NewReader("plain text"), "image/png")
	assert.ErrorIs(t, err, editor.ErrUnsupportedImage)
	assert.Empty(t, rec.upserts)
}

func TestLogoChangeAndRemoval(t *testing.T) {
	form, rec := newForm(t)
	form.Sync(seeded(1))
	ctx := context.Background()

	require.NoError(t, form.SetLogo(ctx, bytes.NewReader(pngData(t)), ""))
	require.NotNil(t, rec.upserts[0].Logo)
	assert.True(t, strings.HasPrefix(*rec.upserts[0].Logo, "data:image/png;base64,"))

	require.NoError(t, form.ClearLogo(ctx))
	assert.Nil(t, rec.upserts[1].Logo)
}

func TestCommitFailureKeepsBase(t *testing.T) {
	form, rec := newForm(t)
	form.Sync(seeded(1))
	rec.err = errors.New("store down")
	ctx := context.Background()

	require.NoError(t, form.Set(ctx, editor.FieldName, "Draft"))
	assert.Error(t, form.Blur(ctx, editor.FieldName))
	assert.Equal(t, "Draft", form.Draft(editor.FieldName))
	assert.Len(t, form.Images(), 2)
}
