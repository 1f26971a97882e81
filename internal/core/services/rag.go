package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// Ensure RAGService implements the interfaces.
var (
	_ driving.RAGService = (*RAGService)(nil)
	_ IndexSource        = (*RAGService)(nil)
)

// RAGConfig holds per-query defaults.
type RAGConfig struct {
	// TopK is the number of records passed to the model when a query does not say.
	TopK int

	// MinSimilarity is the default relevance threshold.
	MinSimilarity float64

	// Retriever tunes candidate selection.
	Retriever RetrieverConfig
}

// DefaultRAGConfig returns the defaults used by the CLI.
func DefaultRAGConfig() RAGConfig {
	return RAGConfigFrom(domain.DefaultAppSettings().Retrieval)
}

// RAGConfigFrom maps retrieval settings onto a RAG config.
func RAGConfigFrom(s domain.RetrievalSettings) RAGConfig {
	return RAGConfig{
		TopK:          s.TopK,
		MinSimilarity: s.MinSimilarity,
		Retriever:     RetrieverConfigFrom(s),
	}
}

// indexState is one complete, immutable-once-published index generation.
type indexState struct {
	index   driven.VectorIndex
	builtAt time.Time
	model   string
}

// RAGService answers questions about booking records.
//
// The live index is published through an atomic pointer. Builds fill a fresh
// index and swap it in once complete, so queries never observe a partially
// built index. Builds and appends are serialised by buildMu.
type RAGService struct {
	encoder    *Encoder
	embedder   TextEmbedder
	newIndex   driven.IndexFactory
	indexStore driven.IndexStore
	retriever  *Retriever
	composer   *Composer
	history    *HistoryLog
	cfg        RAGConfig

	state   atomic.Pointer[indexState]
	buildMu sync.Mutex
	now     func() time.Time
}

// NewRAGService creates the question-answering service.
// history may be nil, in which case an unpersisted log is used.
func NewRAGService(
	embedder TextEmbedder,
	newIndex driven.IndexFactory,
	composer *Composer,
	history *HistoryLog,
	cfg RAGConfig,
) *RAGService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultAppSettings().Retrieval.TopK
	}
	if history == nil {
		history = NewHistoryLog(nil)
	}
	s := &RAGService{
		encoder:  NewEncoder(),
		embedder: embedder,
		newIndex: newIndex,
		composer: composer,
		history:  history,
		cfg:      cfg,
		now:      time.Now,
	}
	s.retriever = NewRetriever(embedder, s, cfg.Retriever)
	return s
}

// SetIndexStore sets the store used to persist and reload the index.
// Without one the index lives in memory only.
func (s *RAGService) SetIndexStore(store driven.IndexStore) {
	s.indexStore = store
}

// Index returns the live index, or nil before the first build or load.
func (s *RAGService) Index() driven.VectorIndex {
	st := s.state.Load()
	if st == nil {
		return nil
	}
	return st.index
}

// History returns the query history log.
func (s *RAGService) History() *HistoryLog {
	return s.history
}

// BuildIndex encodes and embeds records into a fresh index, persists it and
// swaps it in. A concurrent build fails with domain.ErrBuildInProgress.
func (s *RAGService) BuildIndex(ctx context.Context, records []domain.BookingRecord) (*domain.BuildReport, error) {
	if !s.buildMu.TryLock() {
		return nil, domain.ErrBuildInProgress
	}
	defer s.buildMu.Unlock()

	logger.Section("Index Build")
	start := s.now()

	idx, report, err := s.buildInto(ctx, s.newIndex(), records)
	if err != nil {
		return report, err
	}

	if err := s.publish(ctx, idx); err != nil {
		_ = idx.Close()
		return report, err
	}

	report.Duration = s.now().Sub(start)
	logger.Info("Indexed %d records (%d skipped) in %s", report.Indexed, len(report.Skipped), report.Duration)
	return report, nil
}

// AppendRecords embeds records into a copy of the live index, persists it
// and swaps it in. Existing document IDs are replaced.
func (s *RAGService) AppendRecords(ctx context.Context, records []domain.BookingRecord) (*domain.BuildReport, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	logger.Section("Index Append")
	start := s.now()

	next := s.newIndex()
	if current := s.Index(); current != nil {
		if err := next.Restore(current.Entries()); err != nil {
			_ = next.Close()
			return nil, fmt.Errorf("copy index: %w", err)
		}
	}

	idx, report, err := s.buildInto(ctx, next, records)
	if err != nil {
		return report, err
	}
	if err := s.publish(ctx, idx); err != nil {
		_ = idx.Close()
		return report, err
	}

	report.Duration = s.now().Sub(start)
	logger.Info("Appended %d records (%d skipped), index now holds %d", report.Indexed, len(report.Skipped), idx.Count())
	return report, nil
}

// buildInto encodes, embeds and upserts records into idx. On error idx is closed.
func (s *RAGService) buildInto(
	ctx context.Context, idx driven.VectorIndex, records []domain.BookingRecord,
) (driven.VectorIndex, *domain.BuildReport, error) {
	docs, skipped := s.encoder.EncodeAll(records)
	report := &domain.BuildReport{Skipped: skipped}
	for _, rerr := range skipped {
		logger.Debug("Skipping %v", rerr)
	}
	logger.Debug("Encoded %d of %d records", len(docs), len(records))

	if len(docs) == 0 {
		_ = idx.Close()
		return nil, report, fmt.Errorf("%w: no valid records to index", domain.ErrInvalidInput)
	}

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Text
	}
	vectors, err := s.embedder.EmbedMany(ctx, texts)
	if err != nil {
		_ = idx.Close()
		return nil, report, fmt.Errorf("embed records: %w", err)
	}

	for i := range docs {
		if err := idx.Upsert(ctx, docs[i], vectors[i]); err != nil {
			_ = idx.Close()
			return nil, report, fmt.Errorf("index record %d: %w", docs[i].DocumentID, err)
		}
	}

	report.Indexed = len(docs)
	report.Dimension = idx.Dimension()
	return idx, report, nil
}

// publish persists idx and makes it the live index.
// The previous index is left open for queries still holding it.
func (s *RAGService) publish(ctx context.Context, idx driven.VectorIndex) error {
	st := &indexState{
		index:   idx,
		builtAt: s.now().UTC(),
		model:   s.embedder.ModelName(),
	}

	if s.indexStore != nil {
		snapshot := domain.IndexSnapshot{
			Dimension:      idx.Dimension(),
			EmbeddingModel: st.model,
			BuiltAt:        st.builtAt,
			Entries:        idx.Entries(),
		}
		if err := s.indexStore.Save(ctx, snapshot); err != nil {
			return fmt.Errorf("persist index: %w", err)
		}
		logger.Debug("Persisted index snapshot with %d entries", len(snapshot.Entries))
	}

	s.state.Store(st)
	return nil
}

// LoadIndex restores the last persisted index and swaps it in.
func (s *RAGService) LoadIndex(ctx context.Context) error {
	if s.indexStore == nil {
		return fmt.Errorf("%w: no index store", domain.ErrNotConfigured)
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	snapshot, err := s.indexStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	idx := s.newIndex()
	if err := idx.Restore(snapshot.Entries); err != nil {
		_ = idx.Close()
		return fmt.Errorf("restore index: %w", err)
	}

	if model := s.embedder.ModelName(); model != "" && snapshot.EmbeddingModel != "" && model != snapshot.EmbeddingModel {
		logger.Warn("Index was built with %q but the configured embedding model is %q; rebuild to query reliably",
			snapshot.EmbeddingModel, model)
	}

	s.state.Store(&indexState{
		index:   idx,
		builtAt: snapshot.BuiltAt,
		model:   snapshot.EmbeddingModel,
	})
	logger.Info("Loaded index with %d entries (dimension %d)", idx.Count(), idx.Dimension())
	return nil
}

// AnswerQuery retrieves supporting records and composes an answer.
func (s *RAGService) AnswerQuery(ctx context.Context, query string, opts domain.QueryOptions) (*domain.Answer, error) {
	return s.answer(ctx, query, opts, nil)
}

// AnswerQueryStream is AnswerQuery with answer text delivered incrementally.
func (s *RAGService) AnswerQueryStream(
	ctx context.Context, query string, opts domain.QueryOptions, onDelta func(string),
) (*domain.Answer, error) {
	return s.answer(ctx, query, opts, onDelta)
}

func (s *RAGService) answer(
	ctx context.Context, query string, opts domain.QueryOptions, onDelta func(string),
) (*domain.Answer, error) {
	logger.Section("Answer Query")
	logger.Debug("Query: %q", query)

	topK := opts.TopK
	if topK == 0 {
		topK = s.cfg.TopK
	}
	minSim := s.cfg.MinSimilarity
	if opts.MinSimilarity != nil {
		minSim = *opts.MinSimilarity
	}
	logger.Debug("top_k=%d min_similarity=%.3f filter=%v", topK, minSim, opts.Filter)

	rc, err := s.retriever.RetrieveFiltered(ctx, query, topK, minSim, opts.Filter)
	if err != nil {
		return nil, err
	}

	var answer domain.Answer
	if onDelta != nil {
		answer, err = s.composer.ComposeStream(ctx, query, rc, onDelta)
	} else {
		answer, err = s.composer.Compose(ctx, query, rc)
	}
	if err != nil {
		return nil, err
	}

	s.history.Record(ctx, domain.NewHistoryEntry(answer))
	logger.Info("Answered with %d records (validity=%s)", answer.Context.Len(), answer.Validity)
	return &answer, nil
}

// GetHistory returns answered queries oldest-first.
func (s *RAGService) GetHistory(_ context.Context, limit, offset int) ([]domain.QueryHistoryEntry, error) {
	return s.history.List(limit, offset)
}

// Health reports the live index state.
func (s *RAGService) Health() domain.Health {
	st := s.state.Load()
	if st == nil {
		return domain.Health{}
	}
	return domain.Health{
		IndexLoaded: true,
		EntryCount:  st.index.Count(),
		Dimension:   st.index.Dimension(),
		BuiltAt:     st.builtAt,
	}
}

// Close releases the live index.
func (s *RAGService) Close() error {
	st := s.state.Swap(nil)
	if st == nil {
		return nil
	}
	return st.index.Close()
}
