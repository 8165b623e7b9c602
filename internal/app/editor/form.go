// Package editor keeps the editable drafts of the selected product and
// decides when they are committed.
package editor

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNoSelection      = errors.New("no product selected")
	ErrUnknownField     = errors.New("unknown field")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageIndex       = errors.New("image index out of range")
	ErrInvalidValue     = errors.New("invalid field value")
)

// MaxImageBytes bounds a single uploaded image or logo.
const MaxImageBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

var leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Committer stores a whole product record
type Committer interface {
	Upsert(ctx context.Context, product domain.Product) error
}

// Form binds drafts of every field of the selected product
type Form struct {
	mu        sync.Mutex
	committer Committer
	base      *domain.Product
	drafts    map[Field]string
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewForm creates a form with nothing selected
func NewForm(committer Committer, tracer trace.Tracer, logger *slog.Logger) *Form {
	return &Form{
		committer: committer,
		drafts:    map[Field]string{},
		tracer:    tracer,
		logger:    logger,
	}
}

// Sync replaces every draft with the content of p. A nil product clears
// the form.
func (f *Form) Sync(p *domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sync(p)
}

func (f *Form) sync(p *domain.Product) {
	f.drafts = map[Field]string{}
	if p == nil {
		f.base = nil
		return
	}

	c := p.Clone()
	f.base = &c

	f.drafts[FieldName] = c.Name
	f.drafts[FieldDescription] = c.Description
	f.drafts[FieldDescriptionAr] = c.DescriptionAr
	f.drafts[FieldPrice] = formatNumber(c.Price)
	f.drafts[FieldSoldOut] = strconv.FormatBool(c.SoldOut)
	if c.OriginalPrice != nil {
		f.drafts[FieldOriginalPrice] = formatNumber(*c.OriginalPrice)
	}
	if c.PromotionText != nil {
		f.drafts[FieldPromotionText] = *c.PromotionText
	}
}

// Selected reports whether a product is bound.
func (f *Form) Selected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.base != nil
}

// Draft returns the current text of a control.
func (f *Form) Draft(field Field) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drafts[field]
}

// Images returns the image list of the bound product.
func (f *Form) Images() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.base == nil {
		return nil
	}
	return append([]string(nil), f.base.Images...)
}

// Set records an edit. Fields committing on change are stored at once.
func (f *Form) Set(ctx context.Context, field Field, raw string) error {
	strategy, ok := field.Strategy()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.base == nil {
		return ErrNoSelection
	}

	if field == FieldSoldOut {
		soldOut, err := parseCheckbox(raw)
		if err != nil {
			return err
		}
		f.drafts[field] = strconv.FormatBool(soldOut)

		p := f.base.Clone()
		p.SoldOut = soldOut
		return f.commit(ctx, "soldOut", p)
	}

	f.drafts[field] = raw
	if strategy == CommitOnChange {
		return f.commit(ctx, string(field), f.product())
	}
	return nil
}

// Blur commits the whole record when a blur-committed control loses focus.
func (f *Form) Blur(ctx context.Context, field Field) error {
	strategy, ok := field.Strategy()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if strategy != CommitOnBlur {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.base == nil {
		return ErrNoSelection
	}
	return f.commit(ctx, "blur:"+string(field), f.product())
}

// Product rebuilds a record from the drafts, normalising numbers and the
// optional promotion text.
func (f *Form) Product() (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.base == nil {
		return domain.Product{}, ErrNoSelection
	}
	return f.product(), nil
}

func (f *Form) product() domain.Product {
	p := f.base.Clone()
	p.Name = f.drafts[FieldName]
	p.Description = f.drafts[FieldDescription]
	p.DescriptionAr = f.drafts[FieldDescriptionAr]
	p.Price = parsePrice(f.drafts[FieldPrice])
	p.OriginalPrice = parseOptionalPrice(f.drafts[FieldOriginalPrice])
	p.PromotionText = nil
	if text := f.drafts[FieldPromotionText]; text != "" {
		p.PromotionText = domain.String(text)
	}
	if soldOut, err := strconv.ParseBool(f.drafts[FieldSoldOut]); err == nil {
		p.SoldOut = soldOut
	}
	return p
}

// AddImage appends an uploaded image as a data URI and commits.
func (f *Form) AddImage(ctx context.Context, r io.Reader, contentType string) error {
	uri, err := EncodeImage(r, contentType)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.base == nil {
		return ErrNoSelection
	}

	p := f.base.Clone()
	p.Images = append(p.Images, uri)
	return f.commit(ctx, "images.add", p)
}

// DeleteImage removes the image at index i and commits.
func (f *Form) DeleteImage(ctx context.Context, i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.base == nil {
		return ErrNoSelection
	}
	if i < 0 || i >= len(f.base.Images) {
		return fmt.Errorf("%w: %d", ErrImageIndex, i)
	}

	p := f.base.Clone()
	p.Images = append(p.Images[:i:i], p.Images[i+1:]...)
	return f.commit(ctx, "images.delete", p)
}

// SetLogo replaces the logo with an uploaded image and commits.
func (f *Form) SetLogo(ctx context.Context, r io.Reader, contentType string) error {
	uri, err := EncodeImage(r, contentType)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.base == nil {
		return ErrNoSelection
	}

	p := f.base.Clone()
	p.Logo = domain.String(uri)
	return f.commit(ctx, "logo.set", p)
}

// ClearLogo removes the logo and commits.
func (f *Form) ClearLogo(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.base == nil {
		return ErrNoSelection
	}

	p := f.base.Clone()
	p.Logo = nil
	return f.commit(ctx, "logo.clear", p)
}

// commit stores p and re-syncs every draft from it. Callers hold mu.
func (f *Form) commit(ctx context.Context, trigger string, p domain.Product) error {
	ctx, span := f.tracer.Start(ctx, "Form.commit")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product.id", p.ID),
		attribute.String("commit.trigger", trigger),
	)

	if err := f.committer.Upsert(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to commit product")
		f.logger.ErrorContext(ctx, "Failed to commit product",
			slog.Int64("product_id", p.ID),
			slog.String("trigger", trigger),
			slog.String("error", err.Error()),
		)
		return err
	}

	f.sync(&p)

	f.logger.DebugContext(ctx, "Product committed",
		slog.Int64("product_id", p.ID),
		slog.String("trigger", trigger),
	)
	span.SetStatus(codes.Ok, "product committed")
	return nil
}

// EncodeImage reads an image file into a data URI. The declared content
// type is ignored when the bytes say otherwise.
func EncodeImage(r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrUnsupportedImage, MaxImageBytes)
	}

	mediaType := http.DetectContentType(data)
	if !allowedImageTypes[mediaType] {
		declared, _, _ := strings.Cut(contentType, ";")
		return "", fmt.Errorf("%w: %s (declared %q)", ErrUnsupportedImage, mediaType, strings.TrimSpace(declared))
	}

	var buf bytes.Buffer
	buf.WriteString("data:")
	buf.WriteString(mediaType)
	buf.WriteString(";base64,")
	buf.WriteString(base64.StdEncoding.EncodeToString(data))
	return buf.String(), nil
}

// parsePrice reads the leading number of s, or 0.
func parsePrice(s string) float64 {
	v, ok := leadingFloat(s)
	if !ok || v == 0 {
		return 0
	}
	return v
}

// parseOptionalPrice returns nil for empty or unparseable input.
func parseOptionalPrice(s string) *float64 {
	if s == "" {
		return nil
	}
	v, ok := leadingFloat(s)
	if !ok {
		return nil
	}
	return domain.Float(v)
}

func leadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseCheckbox(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on":
		return true, nil
	case "", "off":
		return false, nil
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return false, fmt.Errorf("%w: soldOut %q: %v", ErrInvalidValue, raw, err)
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
