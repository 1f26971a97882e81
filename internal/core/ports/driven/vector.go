package driven

import (
	"context"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// VectorIndex stores document embeddings and answers cosine similarity queries.
//
// The first successful Upsert fixes the index dimension. Later embeddings of a
// different length fail with domain.ErrDimensionMismatch and leave the index
// unchanged. Query results are ordered by similarity descending with ties
// broken by ascending DocumentID.
type VectorIndex interface {
	// Upsert inserts or replaces the entry for doc.DocumentID.
	Upsert(ctx context.Context, doc domain.EncodedDocument, embedding []float32) error

	// Query returns up to topK entries most similar to embedding whose
	// metadata matches filter. Fails with domain.ErrEmptyIndex when no
	// entries are stored.
	Query(ctx context.Context, embedding []float32, topK int, filter domain.Metadata) (domain.RetrievedContext, error)

	// Count returns the number of stored entries.
	Count() int

	// Dimension returns the fixed embedding length, or 0 before the first Upsert.
	Dimension() int

	// Entries returns a copy of every stored entry in ascending DocumentID order.
	Entries() []domain.IndexEntry

	// Restore replaces the contents with entries. All entries must share one
	// dimension; on error the index is unchanged.
	Restore(entries []domain.IndexEntry) error

	// Close releases resources.
	Close() error
}

// IndexFactory creates empty VectorIndex instances.
// Rebuilds fill a fresh instance and swap it in once complete.
type IndexFactory func() VectorIndex

// IndexStore persists index snapshots.
type IndexStore interface {
	// Save replaces the persisted snapshot. A failed Save leaves the
	// previous snapshot intact.
	Save(ctx context.Context, snapshot domain.IndexSnapshot) error

	// Load returns the persisted snapshot, or domain.ErrNotFound.
	Load(ctx context.Context) (*domain.IndexSnapshot, error)
}
