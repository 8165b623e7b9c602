package memory

import (
	"context"
	"sync"

	"github.com/mrops-br/instafiche/internal/domain"
)

// SnapshotStore keeps the snapshot in process memory, for tests and
// ephemeral sessions
type SnapshotStore struct {
	mu       sync.Mutex
	products []domain.Product
	saved    bool
	saves    int
}

// NewSnapshotStore creates an empty store
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Load returns the last saved snapshot
func (s *SnapshotStore) Load(_ context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.saved {
		return nil, domain.ErrSnapshotNotFound
	}
	return cloneAll(s.products), nil
}

// Save overwrites the snapshot
func (s *SnapshotStore) Save(_ context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = cloneAll(products)
	s.saved = true
	s.saves++
	return nil
}

// Saves reports how many snapshots were written
func (s *SnapshotStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
