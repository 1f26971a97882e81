package mcp

import (
	"context"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	answer   *domain.Answer
	history  []domain.QueryHistoryEntry
	health   domain.Health
	err      error
	lastOpts domain.QueryOptions
	lastLim  int
	lastOff  int
}

func (m *mockRAGService) BuildIndex(_ context.Context, _ []domain.BookingRecord) (*domain.BuildReport, error) {
	return &domain.BuildReport{}, m.err
}

func (m *mockRAGService) AppendRecords(_ context.Context, _ []domain.BookingRecord) (*domain.BuildReport, error) {
	return &domain.BuildReport{}, m.err
}

func (m *mockRAGService) LoadIndex(_ context.Context) error {
	return m.err
}

func (m *mockRAGService) AnswerQuery(
	_ context.Context,
	_ string,
	opts domain.QueryOptions,
) (*domain.Answer, error) {
	m.lastOpts = opts
	return m.answer, m.err
}

func (m *mockRAGService) AnswerQueryStream(
	ctx context.Context,
	query string,
	opts domain.QueryOptions,
	_ func(string),
) (*domain.Answer, error) {
	return m.AnswerQuery(ctx, query, opts)
}

func (m *mockRAGService) GetHistory(_ context.Context, limit, offset int) ([]domain.QueryHistoryEntry, error) {
	m.lastLim, m.lastOff = limit, offset
	return m.history, m.err
}

func (m *mockRAGService) Health() domain.Health {
	return m.health
}

// mockAnalyticsService is a mock implementation of driving.AnalyticsService.
type mockAnalyticsService struct {
	report *domain.AnalyticsReport
	data   any
	err    error
}

func (m *mockAnalyticsService) Report(_ context.Context) (*domain.AnalyticsReport, error) {
	return m.report, m.err
}

func (m *mockAnalyticsService) Metric(_ context.Context, metric domain.AnalyticsMetric) (any, error) {
	if !metric.IsValid() {
		return nil, domain.ErrUnsupportedType
	}
	return m.data, m.err
}
