package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is a stored document with its unit-length embedding.
type entry struct {
	doc  domain.IndexEntry
	unit []float64
}

// Index is an exact cosine similarity index held in memory.
// Queries scan every entry; writes take the write lock so readers never
// observe a partially applied upsert.
type Index struct {
	mu        sync.RWMutex
	entries   map[int64]*entry
	dimension int
	closed    bool
}

// New creates an empty index.
func New() *Index {
	return &Index{entries: make(map[int64]*entry)}
}

// Factory returns an IndexFactory producing empty in-memory indexes.
func Factory() driven.IndexFactory {
	return func() driven.VectorIndex { return New() }
}

// Upsert inserts or replaces the entry for doc.DocumentID.
func (idx *Index) Upsert(_ context.Context, doc domain.EncodedDocument, embedding []float32) error {
	unit, err := normalise(embedding)
	if err != nil {
		return fmt.Errorf("document %d: %w", doc.DocumentID, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return domain.ErrIndexNotLoaded
	}
	if idx.dimension != 0 && len(embedding) != idx.dimension {
		return fmt.Errorf("%w: document %d has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, doc.DocumentID, len(embedding), idx.dimension)
	}

	if idx.dimension == 0 {
		idx.dimension = len(embedding)
	}
	idx.entries[doc.DocumentID] = &entry{
		doc: domain.IndexEntry{
			DocumentID: doc.DocumentID,
			Text:       doc.Text,
			Embedding:  append([]float32(nil), embedding...),
			Metadata:   doc.Metadata.Clone(),
		},
		unit: unit,
	}
	return nil
}

// Query returns up to topK entries most similar to embedding.
func (idx *Index) Query(
	_ context.Context, embedding []float32, topK int, filter domain.Metadata,
) (domain.RetrievedContext, error) {
	if topK <= 0 {
		return domain.RetrievedContext{}, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	unit, err := normalise(embedding)
	if err != nil {
		return domain.RetrievedContext{}, fmt.Errorf("query: %w", err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return domain.RetrievedContext{}, domain.ErrIndexNotLoaded
	}
	if len(idx.entries) == 0 {
		return domain.RetrievedContext{}, domain.ErrEmptyIndex
	}
	if len(embedding) != idx.dimension {
		return domain.RetrievedContext{}, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(embedding), idx.dimension)
	}

	scored := make([]domain.ScoredEntry, 0, len(idx.entries))
	for _, e := range idx.entries {
		if !e.doc.Metadata.Matches(filter) {
			continue
		}
		scored = append(scored, domain.ScoredEntry{
			Entry:      copyEntry(e.doc),
			Similarity: dot(unit, e.unit),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Entry.DocumentID < scored[j].Entry.DocumentID
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return domain.RetrievedContext{Entries: scored}, nil
}

// Count returns the number of stored entries.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Dimension returns the fixed embedding length, or 0 before the first Upsert.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// Entries returns a copy of every entry in ascending DocumentID order.
func (idx *Index) Entries() []domain.IndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.IndexEntry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, copyEntry(e.doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out
}

// Restore replaces the contents with entries. On error the index is unchanged.
func (idx *Index) Restore(entries []domain.IndexEntry) error {
	next := make(map[int64]*entry, len(entries))
	dimension := 0

	for i := range entries {
		e := entries[i]
		if dimension == 0 {
			dimension = len(e.Embedding)
		} else if len(e.Embedding) != dimension {
			return fmt.Errorf("%w: document %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, e.DocumentID, len(e.Embedding), dimension)
		}
		unit, err := normalise(e.Embedding)
		if err != nil {
			return fmt.Errorf("document %d: %w", e.DocumentID, err)
		}
		next[e.DocumentID] = &entry{doc: copyEntry(e), unit: unit}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return domain.ErrIndexNotLoaded
	}
	idx.entries = next
	idx.dimension = dimension
	return nil
}

// Close releases the stored entries. Later calls fail with domain.ErrIndexNotLoaded.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	idx.closed = true
	return nil
}

// normalise returns v scaled to unit length.
func normalise(v []float32) ([]float64, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", domain.ErrInvalidInput)
	}
	var sum float64
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: embedding contains non-finite values", domain.ErrInvalidInput)
		}
		sum += f * f
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: zero-length embedding", domain.ErrInvalidInput)
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x) / norm
	}
	return out, nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	// Rounding can push unit vectors fractionally past the bounds.
	return math.Max(-1, math.Min(1, sum))
}

func copyEntry(e domain.IndexEntry) domain.IndexEntry {
	return domain.IndexEntry{
		DocumentID: e.DocumentID,
		Text:       e.Text,
		Embedding:  append([]float32(nil), e.Embedding...),
		Metadata:   e.Metadata.Clone(),
	}
}
