package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// Append stores one entry. Entries are never updated or deleted.
func (s *historyStore) Append(ctx context.Context, entry domain.QueryHistoryEntry) error {
	ids := entry.ContextIDs
	if ids == nil {
		ids = []int64{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshalling context ids: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO query_history (id, query, context_ids, answer, validity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Query, string(idsJSON), entry.Answer, string(entry.Validity),
		entry.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving history entry: %w", err)
	}
	return nil
}

// List returns entries oldest-first.
func (s *historyStore) List(ctx context.Context, limit, offset int) ([]domain.QueryHistoryEntry, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, query, context_ids, answer, validity, created_at
		FROM query_history ORDER BY seq LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []domain.QueryHistoryEntry{}
	for rows.Next() {
		var (
			entry                        domain.QueryHistoryEntry
			idsJSON, validity, createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.Query, &idsJSON, &entry.Answer, &validity, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		if err := json.Unmarshal([]byte(idsJSON), &entry.ContextIDs); err != nil {
			return nil, fmt.Errorf("history entry %s: decoding context ids: %w", entry.ID, err)
		}
		entry.Validity = domain.Validity(validity)
		if entry.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("history entry %s: parsing timestamp: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}
