package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mrops-br/instafiche/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// IDGenerator hands out unique, strictly increasing product ids
type IDGenerator interface {
	NextID() int64
}

// ProductRepository is an ordered in-memory implementation of
// domain.ProductRepository mirrored to a SnapshotStore after every mutation
type ProductRepository struct {
	mu       sync.RWMutex
	products []domain.Product
	store    domain.SnapshotStore
	ids      IDGenerator
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductRepository creates the repository and rehydrates it from store.
// A missing or unreadable snapshot falls back to the seed catalogue.
func NewProductRepository(
	ctx context.Context,
	store domain.SnapshotStore,
	ids IDGenerator,
	tracer trace.Tracer,
	logger *slog.Logger,
) *ProductRepository {
	r := &ProductRepository{
		store:  store,
		ids:    ids,
		tracer: tracer,
		logger: logger,
	}
	r.products = r.load(ctx)
	return r
}

func (r *ProductRepository) load(ctx context.Context) []domain.Product {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Load")
	defer span.End()

	products, err := r.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			r.logger.InfoContext(ctx, "No product snapshot found, using seed catalogue")
		} else {
			span.RecordError(err)
			r.logger.WarnContext(ctx, "Product snapshot unreadable, using seed catalogue",
				slog.String("error", err.Error()),
			)
		}
		span.SetAttributes(attribute.Bool("products.seeded", true))
		span.SetStatus(codes.Ok, "Seed catalogue loaded")
		return domain.SeedProducts()
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	r.logger.InfoContext(ctx, "Products rehydrated from snapshot",
		slog.Int("count", len(products)),
	)
	span.SetStatus(codes.Ok, "Snapshot loaded")
	return products
}

// persist writes the whole collection. Callers must hold the write lock.
// Failures are logged and never surfaced.
func (r *ProductRepository) persist(ctx context.Context) {
	if err := r.store.Save(ctx, cloneAll(r.products)); err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		r.logger.WarnContext(ctx, "Failed to persist product snapshot",
			slog.String("error", err.Error()),
		)
	}
}

// List returns the products in collection order
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := cloneAll(r.products)

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		r.logger.WarnContext(ctx, "Product not found",
			slog.Int64("product_id", id),
		)
		return domain.Product{}, domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product found")
	return r.products[i].Clone(), nil
}

// Upsert replaces the record with the same id, keeping its position
func (r *ProductRepository) Upsert(ctx context.Context, product domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Upsert")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product.id", product.ID),
		attribute.String("product.name", product.Name),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(product.ID)
	if i < 0 {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}

	r.products[i] = product.Clone()
	r.persist(ctx)

	r.logger.InfoContext(ctx, "Product replaced in repository",
		slog.Int64("product_id", product.ID),
		slog.String("product_name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product replaced successfully")
	return nil
}

// Add appends a product with default content and a fresh id
func (r *ProductRepository) Add(ctx context.Context) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Add")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	product, err := domain.NewProduct(r.ids.NextID())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid product")
		return domain.Product{}, err
	}

	span.SetAttributes(attribute.Int64("product.id", product.ID))

	r.products = append(r.products, *product)
	r.persist(ctx)

	r.logger.InfoContext(ctx, "Product created in repository",
		slog.Int64("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return product.Clone(), nil
}

// Remove deletes a product by ID. Unknown ids are ignored.
func (r *ProductRepository) Remove(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Remove")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		r.logger.DebugContext(ctx, "Remove of unknown product ignored",
			slog.Int64("product_id", id),
		)
		span.SetStatus(codes.Ok, "Nothing to remove")
		return nil
	}

	r.products = append(r.products[:i:i], r.products[i+1:]...)
	r.persist(ctx)

	r.logger.InfoContext(ctx, "Product removed from repository",
		slog.Int64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product removed successfully")
	return nil
}

func (r *ProductRepository) indexOf(id int64) int {
	for i := range r.products {
		if r.products[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	for i := range products {
		out[i] = products[i].Clone()
	}
	return out
}
