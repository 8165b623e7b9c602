package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// ProductRepository defines the contract for the ordered product collection
type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	FindByID(ctx context.Context, id int64) (Product, error)
	Upsert(ctx context.Context, product Product) error
	Add(ctx context.Context) (Product, error)
	Remove(ctx context.Context, id int64) error
}

// SnapshotStore persists the whole product collection as one record
type SnapshotStore interface {
	Load(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, products []Product) error
}
