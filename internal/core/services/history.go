package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// HistoryLog is the append-only record of answered queries.
// Entries are kept in arrival order, oldest first.
//
// When a HistoryStore is attached every append is mirrored to it while the
// log lock is held, so store order matches log order.
type HistoryLog struct {
	mu      sync.RWMutex
	entries []domain.QueryHistoryEntry
	store   driven.HistoryStore
	now     func() time.Time
}

// NewHistoryLog creates a history log. store may be nil.
func NewHistoryLog(store driven.HistoryStore) *HistoryLog {
	return &HistoryLog{
		store: store,
		now:   time.Now,
	}
}

// Hydrate loads previously persisted entries into an empty log.
func (h *HistoryLog) Hydrate(ctx context.Context) error {
	if h.store == nil {
		return nil
	}

	entries, err := h.store.List(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) > 0 {
		return nil
	}
	h.entries = entries
	logger.Debug("Loaded %d history entries", len(entries))
	return nil
}

// Record appends entry, assigning its ID and timestamp, and returns the
// stored copy. A store failure is logged and does not lose the entry.
func (h *HistoryLog) Record(ctx context.Context, entry domain.QueryHistoryEntry) domain.QueryHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry.ID = uuid.NewString()
	entry.Timestamp = h.now().UTC()
	entry.ContextIDs = append([]int64(nil), entry.ContextIDs...)
	h.entries = append(h.entries, entry)

	if h.store != nil {
		if err := h.store.Append(ctx, entry); err != nil {
			logger.Warn("Failed to persist history entry %s: %v", entry.ID, err)
		}
	}
	return entry
}

// List returns up to limit entries after skipping offset, oldest first.
// A limit <= 0 returns every entry after offset.
func (h *HistoryLog) List(limit, offset int) ([]domain.QueryHistoryEntry, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidInput)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if offset >= len(h.entries) {
		return []domain.QueryHistoryEntry{}, nil
	}
	end := len(h.entries)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}

	out := make([]domain.QueryHistoryEntry, end-offset)
	for i, e := range h.entries[offset:end] {
		e.ContextIDs = slices.Clone(e.ContextIDs)
		out[i] = e
	}
	return out, nil
}

// Len returns the number of recorded entries.
func (h *HistoryLog) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
