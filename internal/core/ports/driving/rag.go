package driving

import (
	"context"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// RAGService is the question-answering core exposed to every driving adapter.
type RAGService interface {
	// BuildIndex encodes and embeds records into a fresh index, persists it
	// and swaps it in. Queries running during the build see the old index.
	BuildIndex(ctx context.Context, records []domain.BookingRecord) (*domain.BuildReport, error)

	// AppendRecords embeds records into the live index and persists the result.
	AppendRecords(ctx context.Context, records []domain.BookingRecord) (*domain.BuildReport, error)

	// LoadIndex restores the last persisted index.
	LoadIndex(ctx context.Context) error

	// AnswerQuery retrieves supporting records and composes an answer.
	// Every answered query is appended to the history log.
	AnswerQuery(ctx context.Context, query string, opts domain.QueryOptions) (*domain.Answer, error)

	// AnswerQueryStream is AnswerQuery with incremental answer text delivered to onDelta.
	AnswerQueryStream(ctx context.Context, query string, opts domain.QueryOptions, onDelta func(string)) (*domain.Answer, error)

	// GetHistory returns answered queries oldest-first.
	GetHistory(ctx context.Context, limit, offset int) ([]domain.QueryHistoryEntry, error)

	// Health reports whether an index is loaded and how large it is.
	Health() domain.Health
}
