package tui

import (
	"context"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// mockRAGService answers with a fixed answer.
type mockRAGService struct {
	answer *domain.Answer
	err    error
	health domain.Health
}

func (m *mockRAGService) BuildIndex(context.Context, []domain.BookingRecord) (*domain.BuildReport, error) {
	return &domain.BuildReport{}, nil
}

func (m *mockRAGService) AppendRecords(context.Context, []domain.BookingRecord) (*domain.BuildReport, error) {
	return &domain.BuildReport{}, nil
}

func (m *mockRAGService) LoadIndex(context.Context) error { return nil }

func (m *mockRAGService) AnswerQuery(_ context.Context, query string, _ domain.QueryOptions) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	a := *m.answer
	a.Query = query
	return &a, nil
}

func (m *mockRAGService) AnswerQueryStream(
	ctx context.Context, query string, opts domain.QueryOptions, _ func(string),
) (*domain.Answer, error) {
	return m.AnswerQuery(ctx, query, opts)
}

func (m *mockRAGService) GetHistory(context.Context, int, int) ([]domain.QueryHistoryEntry, error) {
	return nil, nil
}

func (m *mockRAGService) Health() domain.Health { return m.health }
