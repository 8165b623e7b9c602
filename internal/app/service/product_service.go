package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mrops-br/instafiche/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService handles product use cases
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productCreatedCounter, _ := meter.Int64Counter(
		"instafiche.products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"instafiche.products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

// CreateProduct appends a product with default content
func (s *ProductService) CreateProduct(ctx context.Context) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	s.logger.InfoContext(ctx, "Creating product")

	product, err := s.repo.Add(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create product")
		s.logger.ErrorContext(ctx, "Failed to create product",
			slog.String("error", err.Error()),
		)
		s.record(ctx, "create", "failure")
		return domain.Product{}, err
	}

	span.SetAttributes(attribute.Int64("product.id", product.ID))

	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.Int64("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.Int64("product_id", id),
		)
		s.record(ctx, "read", "not_found")
		return domain.Product{}, err
	}

	s.record(ctx, "read", "success")
	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return product, nil
}

// ListProducts returns every product in display order
func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list products")
		s.logger.ErrorContext(ctx, "Failed to list products",
			slog.String("error", err.Error()),
		)
		s.record(ctx, "list", "failure")
		return nil, err
	}

	span.SetAttributes(attribute.Int("products.count", len(products)))
	s.record(ctx, "list", "success")

	span.SetStatus(codes.Ok, "Products listed successfully")
	return products, nil
}

// UpdateProduct replaces the stored record with the same ID
func (s *ProductService) UpdateProduct(ctx context.Context, product domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product.id", product.ID),
		attribute.String("product.name", product.Name),
		attribute.Bool("product.sold_out", product.SoldOut),
	)

	if err := product.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.record(ctx, "update", "failure")
		return err
	}

	if err := s.repo.Upsert(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update product")
		result := "failure"
		if errors.Is(err, domain.ErrProductNotFound) {
			result = "not_found"
		}
		s.logger.WarnContext(ctx, "Failed to update product",
			slog.Int64("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		s.record(ctx, "update", result)
		return err
	}

	s.record(ctx, "update", "success")

	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.Int64("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return nil
}

// DeleteProduct removes a product. Unknown IDs are ignored.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	s.logger.InfoContext(ctx, "Deleting product",
		slog.Int64("product_id", id),
	)

	if err := s.repo.Remove(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete product")
		s.logger.ErrorContext(ctx, "Failed to delete product",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		s.record(ctx, "delete", "failure")
		return err
	}

	s.record(ctx, "delete", "success")

	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.Int64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
