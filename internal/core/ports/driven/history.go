package driven

import (
	"context"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// HistoryStore persists query history entries.
// Entries are append-only; there is no update or delete.
type HistoryStore interface {
	// Append stores one entry.
	Append(ctx context.Context, entry domain.QueryHistoryEntry) error

	// List returns entries oldest-first, skipping offset and returning at
	// most limit entries. A limit <= 0 returns everything after offset.
	List(ctx context.Context, limit, offset int) ([]domain.QueryHistoryEntry, error)
}
