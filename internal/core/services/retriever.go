package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// IndexSource yields the vector index queries should run against.
// It returns nil when no index is loaded.
type IndexSource interface {
	Index() driven.VectorIndex
}

// StaticIndex is an IndexSource that always returns the same index.
type StaticIndex struct {
	VectorIndex driven.VectorIndex
}

// Index returns the wrapped index.
func (s StaticIndex) Index() driven.VectorIndex {
	return s.VectorIndex
}

// RetrieverConfig tunes candidate selection.
type RetrieverConfig struct {
	// OverFetch multiplies topK when querying the index so that
	// threshold filtering and re-ranking have candidates to spare.
	OverFetch int

	// TieEpsilon is the similarity gap within which candidates count as tied
	// for secondary re-ranking.
	TieEpsilon float64

	// Rerank picks the secondary signal for near-ties.
	Rerank domain.RerankSignal
}

// DefaultRetrieverConfig returns the defaults used by the CLI.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfigFrom(domain.DefaultAppSettings().Retrieval)
}

// RetrieverConfigFrom maps retrieval settings onto a retriever config.
func RetrieverConfigFrom(s domain.RetrievalSettings) RetrieverConfig {
	return RetrieverConfig{
		OverFetch:  s.OverFetch,
		TieEpsilon: 0.005,
		Rerank:     s.Rerank,
	}
}

// Retriever embeds a question and selects the most similar records.
type Retriever struct {
	embedder TextEmbedder
	source   IndexSource
	cfg      RetrieverConfig
}

// NewRetriever creates a retriever.
func NewRetriever(embedder TextEmbedder, source IndexSource, cfg RetrieverConfig) *Retriever {
	if cfg.OverFetch < 1 {
		cfg.OverFetch = 1
	}
	if cfg.TieEpsilon < 0 {
		cfg.TieEpsilon = 0
	}
	if !cfg.Rerank.IsValid() {
		cfg.Rerank = domain.RerankNone
	}
	return &Retriever{embedder: embedder, source: source, cfg: cfg}
}

// Retrieve returns at most topK entries scoring at least minSimilarity.
// Finding nothing is not an error: the result is simply empty.
func (r *Retriever) Retrieve(
	ctx context.Context, query string, topK int, minSimilarity float64,
) (domain.RetrievedContext, error) {
	return r.RetrieveFiltered(ctx, query, topK, minSimilarity, nil)
}

// RetrieveFiltered is Retrieve restricted to entries whose metadata matches filter.
func (r *Retriever) RetrieveFiltered(
	ctx context.Context, query string, topK int, minSimilarity float64, filter domain.Metadata,
) (domain.RetrievedContext, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.RetrievedContext{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if topK <= 0 || topK > domain.MaxTopK {
		return domain.RetrievedContext{}, fmt.Errorf("%w: top_k must be between 1 and %d, got %d",
			domain.ErrInvalidInput, domain.MaxTopK, topK)
	}

	index := r.source.Index()
	if index == nil {
		return domain.RetrievedContext{}, domain.ErrIndexNotLoaded
	}

	embedding, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return domain.RetrievedContext{}, fmt.Errorf("embed query: %w", err)
	}

	fetch := topK
	if n := index.Count(); r.cfg.OverFetch > 1 && n > topK {
		fetch = n
		if r.cfg.OverFetch < n/topK {
			fetch = topK * r.cfg.OverFetch
		}
	}
	candidates, err := index.Query(ctx, embedding, fetch, filter)
	if err != nil {
		return domain.RetrievedContext{}, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("Retrieved %d candidates (fetch=%d)", candidates.Len(), fetch)

	kept := make([]domain.ScoredEntry, 0, len(candidates.Entries))
	for _, c := range candidates.Entries {
		if c.Similarity >= minSimilarity {
			kept = append(kept, c)
		}
	}
	logger.Debug("After min_similarity %.3f: %d candidates", minSimilarity, len(kept))

	r.rerank(kept)

	if len(kept) > topK {
		kept = kept[:topK]
	}
	return domain.RetrievedContext{Entries: kept}, nil
}

// rerank reorders runs of near-tied candidates by the secondary signal.
// Candidates must arrive in similarity order.
func (r *Retriever) rerank(entries []domain.ScoredEntry) {
	if r.cfg.Rerank == domain.RerankNone || len(entries) < 2 {
		return
	}

	start := 0
	for start < len(entries) {
		end := start + 1
		leader := entries[start].Similarity
		for end < len(entries) && leader-entries[end].Similarity <= r.cfg.TieEpsilon {
			end++
		}
		group := entries[start:end]
		sort.SliceStable(group, func(i, j int) bool {
			si, sj := r.secondary(group[i]), r.secondary(group[j])
			if si != sj {
				return si > sj
			}
			return group[i].Entry.DocumentID < group[j].Entry.DocumentID
		})
		start = end
	}
}

func (r *Retriever) secondary(e domain.ScoredEntry) float64 {
	switch r.cfg.Rerank {
	case domain.RerankRevenue:
		v, _ := e.Entry.Metadata.Float(domain.MetaTotalRevenue)
		return v
	case domain.RerankRecency:
		date, _ := e.Entry.Metadata.String(domain.MetaArrivalDate)
		// YYYY-MM-DD sorts lexically; fold it into a number for comparison.
		var y, m, d int
		if _, err := fmt.Sscanf(date, "%d-%d-%d", &y, &m, &d); err != nil {
			return 0
		}
		return float64(y*10000 + m*100 + d)
	default:
		return 0
	}
}
