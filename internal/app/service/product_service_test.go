package service_test

import (
	"context"
	"testing"

	"github.com/mrops-br/instafiche/internal/app/service"
	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/mrops-br/instafiche/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func newProductService(t *testing.T) *service.ProductService {
	t.Helper()
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	repo := memory.NewProductRepository(context.Background(), memory.NewSnapshotStore(), &counterIDs{next: 10}, tracer, testLogger)
	return service.NewProductService(repo, tracer, metricnoop.NewMeterProvider().Meter("test"), testLogger)
}

func TestProductServiceLifecycle(t *testing.T) {
	svc := newProductService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(11), created.ID)

	created.Name = "Vitamin C"
	require.NoError(t, svc.UpdateProduct(ctx, created))

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vitamin C", got.Name)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	_, err = svc.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestUpdateProductRejectsInvalidAndUnknown(t *testing.T) {
	svc := newProductService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.UpdateProduct(ctx, domain.Product{}), domain.ErrInvalidProductID)
	assert.ErrorIs(t, svc.UpdateProduct(ctx, domain.Product{ID: 77}), domain.ErrProductNotFound)
}
