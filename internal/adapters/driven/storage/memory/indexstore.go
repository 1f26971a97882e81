package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
// It keeps one snapshot, deep-copied on the way in and out.
type IndexStore struct {
	mu       sync.RWMutex
	snapshot *domain.IndexSnapshot
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Save replaces the stored snapshot.
func (s *IndexStore) Save(_ context.Context, snapshot domain.IndexSnapshot) error {
	cp := copySnapshot(snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = &cp
	return nil
}

// Load returns the stored snapshot.
func (s *IndexStore) Load(_ context.Context) (*domain.IndexSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, domain.ErrNotFound
	}
	cp := copySnapshot(*s.snapshot)
	return &cp, nil
}

func copySnapshot(in domain.IndexSnapshot) domain.IndexSnapshot {
	out := in
	out.Entries = make([]domain.IndexEntry, len(in.Entries))
	for i, e := range in.Entries {
		e.Embedding = append([]float32(nil), e.Embedding...)
		e.Metadata = e.Metadata.Clone()
		out.Entries[i] = e
	}
	return out
}
