package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.HistoryStore.
type HistoryStore struct {
	mu      sync.RWMutex
	entries []domain.QueryHistoryEntry
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Append stores one entry.
func (s *HistoryStore) Append(_ context.Context, entry domain.QueryHistoryEntry) error {
	entry.ContextIDs = append([]int64(nil), entry.ContextIDs...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns entries oldest-first.
func (s *HistoryStore) List(_ context.Context, limit, offset int) ([]domain.QueryHistoryEntry, error) {
	if offset < 0 {
		return nil, domain.ErrInvalidInput
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.entries) {
		return []domain.QueryHistoryEntry{}, nil
	}
	end := len(s.entries)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]domain.QueryHistoryEntry, 0, end-offset)
	for _, e := range s.entries[offset:end] {
		e.ContextIDs = append([]int64(nil), e.ContextIDs...)
		out = append(out, e)
	}
	return out, nil
}
