package memory_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/mrops-br/instafiche/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type counterIDs struct{ next int64 }

func (c *counterIDs) NextID() int64 {
	c.next++
	return c.next
}

type brokenStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (b *brokenStore) Load(context.Context) ([]domain.Product, error) { return nil, b.loadErr }

func (b *brokenStore) Save(context.Context, []domain.Product) error {
	b.saves++
	return b.saveErr
}

func newRepo(t *testing.T, store domain.SnapshotStore) *memory.ProductRepository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return memory.NewProductRepository(context.Background(), store, &counterIDs{next: 100},
		noop.NewTracerProvider().Tracer("test"), logger)
}

func TestLoadFallsBackToSeedWhenEmpty(t *testing.T) {
	repo := newRepo(t, memory.NewSnapshotStore())

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 4)
	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID)
	}
}

func TestLoadFallsBackToSeedWhenUnreadable(t *testing.T) {
	repo := newRepo(t, &brokenStore{loadErr: errors.New("malformed json")})

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestLoadKeepsEmptySnapshot(t *testing.T) {
	store := memory.NewSnapshotStore()
	require.NoError(t, store.Save(context.Background(), []domain.Product{}))

	repo := newRepo(t, store)
	products, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestUpsertReplacesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	repo := newRepo(t, store)

	before, err := repo.List(ctx)
	require.NoError(t, err)

	updated := before[1]
	updated.Name = "Renamed"
	updated.SoldOut = true

	require.NoError(t, repo.Upsert(ctx, updated))
	require.NoError(t, repo.Upsert(ctx, updated))

	after, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before))

	matches := 0
	for i, p := range after {
		if p.ID == updated.ID {
			matches++
			assert.Equal(t, updated, p)
			continue
		}
		assert.Equal(t, before[i], p)
	}
	assert.Equal(t, 1, matches)
	assert.Equal(t, 2, store.Saves())
}

func TestUpsertUnknownID(t *testing.T) {
	repo := newRepo(t, memory.NewSnapshotStore())
	err := repo.Upsert(context.Background(), domain.Product{ID: 999})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestUpsertDoesNotAliasCaller(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, memory.NewSnapshotStore())

	p, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, p))

	p.Images[0] = "mutated after upsert"

	stored, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated after upsert", stored.Images[0])
}

func TestAddAppendsDefaults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	repo := newRepo(t, store)

	first, err := repo.Add(ctx)
	require.NoError(t, err)
	second, err := repo.Add(ctx)
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, "New Product", first.Name)
	assert.Equal(t, []string{domain.PlaceholderImage}, first.Images)

	products, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 6)
	assert.Equal(t, second.ID, products[5].ID)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 6)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	repo := newRepo(t, store)

	require.NoError(t, repo.Remove(ctx, 12345))
	assert.Equal(t, 0, store.Saves(), "removing an unknown id must not touch storage")

	require.NoError(t, repo.Remove(ctx, 2))
	products, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []int64{1, 3, 4}, []int64{products[0].ID, products[1].ID, products[2].ID})

	_, err = repo.FindByID(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestPersistFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{loadErr: domain.ErrSnapshotNotFound, saveErr: errors.New("disk full")}
	repo := newRepo(t, store)

	p, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	p.Name = "still updated"

	require.NoError(t, repo.Upsert(ctx, p))
	assert.Equal(t, 1, store.saves)

	got, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "still updated", got.Name)
}

func TestSnowflakeIDsIncrease(t *testing.T) {
	ids, err := memory.NewSnowflakeIDs(1)
	require.NoError(t, err)

	prev := ids.NextID()
	for i := 0; i < 1000; i++ {
		next := ids.NextID()
		require.Greater(t, next, prev)
		prev = next
	}
}
