package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mrops-br/instafiche/internal/app/card"
	"github.com/mrops-br/instafiche/internal/app/editor"
	"github.com/mrops-br/instafiche/internal/app/export"
	"github.com/mrops-br/instafiche/internal/app/scene"
	"github.com/mrops-br/instafiche/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DeletePrompt is the question asked before a product is removed.
const DeletePrompt = "Delete this product?"

// Confirmer asks the user to approve a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string, product domain.Product) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string, product domain.Product) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string, product domain.Product) (bool, error) {
	return f(ctx, prompt, product)
}

// Session is the state of one editing session: the selected product, the
// form bound to it, the card on display and the export pipeline.
//
// mu guards selection, card and aspect ratio. It is never held while the
// form is called, because form commits call back into the session.
type Session struct {
	mu       sync.Mutex
	products *ProductService
	pipeline *export.Pipeline
	form     *editor.Form
	card     *card.Card
	selected *int64
	ratio    domain.AspectRatio
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewSession creates a session with nothing selected and the square preset
func NewSession(products *ProductService, pipeline *export.Pipeline, tracer trace.Tracer, logger *slog.Logger) *Session {
	s := &Session{
		products: products,
		pipeline: pipeline,
		card:     card.New(),
		ratio:    domain.AspectSquare,
		tracer:   tracer,
		logger:   logger,
	}
	s.form = editor.NewForm(s, tracer, logger)
	return s
}

// Form is the editor form bound to the selected product
func (s *Session) Form() *editor.Form {
	return s.form
}

// Load selects the first stored product, if any.
func (s *Session) Load(ctx context.Context) error {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		s.show(nil)
		return nil
	}
	s.show(&products[0])
	return nil
}

// Products lists the selector entries.
func (s *Session) Products(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx)
}

// Select binds the product with the given id.
func (s *Session) Select(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "Session.Select")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		return err
	}

	s.show(&p)
	span.SetStatus(codes.Ok, "Product selected")
	return nil
}

// Selected returns the selected product.
func (s *Session) Selected() (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.card.Product()
	if p == nil {
		return domain.Product{}, false
	}
	return *p, true
}

// SelectedID returns the id of the selected product, or nil.
func (s *Session) SelectedID() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return nil
	}
	id := *s.selected
	return &id
}

// SetAspectRatio changes the card shape.
func (s *Session) SetAspectRatio(r domain.AspectRatio) error {
	if _, err := domain.ParseAspectRatio(r.String()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratio = r
	return nil
}

// AspectRatio is the current card shape.
func (s *Session) AspectRatio() domain.AspectRatio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratio
}

// NewProduct appends a default product and selects it.
func (s *Session) NewProduct(ctx context.Context) (domain.Product, error) {
	p, err := s.products.CreateProduct(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	s.show(&p)
	return p, nil
}

// DeleteProduct removes a product once confirmed. A declined confirmation
// leaves everything untouched. When the selected product is removed the
// selection is cleared.
func (s *Session) DeleteProduct(ctx context.Context, id int64, confirm Confirmer) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "Session.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			span.SetStatus(codes.Ok, "Nothing to delete")
			return false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read product")
		return false, err
	}

	if confirm == nil {
		return false, nil
	}
	ok, err := confirm.Confirm(ctx, DeletePrompt, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Confirmation failed")
		return false, err
	}
	span.SetAttributes(attribute.Bool("delete.confirmed", ok))
	if !ok {
		s.logger.InfoContext(ctx, "Product deletion declined",
			slog.Int64("product_id", id),
		)
		span.SetStatus(codes.Ok, "Deletion declined")
		return false, nil
	}

	if err := s.products.DeleteProduct(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete product")
		return false, err
	}

	s.mu.Lock()
	cleared := s.selected != nil && *s.selected == id
	s.mu.Unlock()
	if cleared {
		s.show(nil)
	}

	span.SetStatus(codes.Ok, "Product deleted")
	return true, nil
}

// Upsert stores a committed form record and refreshes the card.
func (s *Session) Upsert(ctx context.Context, p domain.Product) error {
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != nil && *s.selected == p.ID {
		s.card.Show(&p)
	}
	return nil
}

// NextImage advances the carousel.
func (s *Session) NextImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card.Next()
}

// PreviousImage moves the carousel back.
func (s *Session) PreviousImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card.Previous()
}

// SelectImage jumps the carousel to image i.
func (s *Session) SelectImage(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card.Select(i)
}

// ImageIndex is the carousel position.
func (s *Session) ImageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card.Index()
}

// HasCarousel reports whether the card shows carousel controls.
func (s *Session) HasCarousel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card.HasControls()
}

// Tree renders the card as currently displayed, or nil.
func (s *Session) Tree() *scene.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card.Render(s.ratio)
}

// Preview rasterises the card at its on-screen size.
func (s *Session) Preview(ctx context.Context) ([]byte, error) {
	tree := s.Tree()
	if tree == nil {
		return nil, export.ErrPrecondition
	}
	return s.pipeline.Preview(ctx, tree)
}

// Export captures the displayed card and hands it to sink.
func (s *Session) Export(ctx context.Context, sink export.Sink) (*export.Download, error) {
	s.mu.Lock()
	req := export.Request{
		Product:     s.card.Product(),
		AspectRatio: s.ratio,
		Sink:        sink,
	}
	if tree := s.card.Render(s.ratio); tree != nil {
		req.Surface = tree
	}
	s.mu.Unlock()

	return s.pipeline.Export(ctx, req)
}

// Busy is true while an export runs.
func (s *Session) Busy() bool {
	return s.pipeline.Busy()
}

// show displays p everywhere. Called without mu held.
func (s *Session) show(p *domain.Product) {
	s.mu.Lock()
	if p == nil {
		s.selected = nil
	} else {
		id := p.ID
		s.selected = &id
	}
	s.card.Show(p)
	s.mu.Unlock()

	s.form.Sync(p)
}
