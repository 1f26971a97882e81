package httpapi

import (
	"context"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// mockRAGService implements driving.RAGService for testing.
type mockRAGService struct {
	answer   *domain.Answer
	deltas   []string
	err      error
	history  []domain.QueryHistoryEntry
	health   domain.Health
	lastOpts domain.QueryOptions
	lastLim  int
	lastOff  int
}

func (m *mockRAGService) BuildIndex(_ context.Context, _ []domain.BookingRecord) (*domain.BuildReport, error) {
	return &domain.BuildReport{}, nil
}

func (m *mockRAGService) AppendRecords(_ context.Context, _ []domain.BookingRecord) (*domain.BuildReport, error) {
	return &domain.BuildReport{}, nil
}

func (m *mockRAGService) LoadIndex(_ context.Context) error {
	return nil
}

func (m *mockRAGService) AnswerQuery(_ context.Context, query string, opts domain.QueryOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	a := *m.answer
	a.Query = query
	return &a, nil
}

func (m *mockRAGService) AnswerQueryStream(
	ctx context.Context, query string, opts domain.QueryOptions, onDelta func(string),
) (*domain.Answer, error) {
	for _, d := range m.deltas {
		onDelta(d)
	}
	return m.AnswerQuery(ctx, query, opts)
}

func (m *mockRAGService) GetHistory(_ context.Context, limit, offset int) ([]domain.QueryHistoryEntry, error) {
	m.lastLim, m.lastOff = limit, offset
	return m.history, m.err
}

func (m *mockRAGService) Health() domain.Health {
	return m.health
}

// mockAnalyticsService implements driving.AnalyticsService for testing.
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

// mockIndexBuilder implements driving.IndexBuilder for testing.
type mockIndexBuilder struct {
	report *domain.BuildReport
	err    error
	calls  int
}

func (m *mockIndexBuilder) Rebuild(_ context.Context) (*domain.BuildReport, error) {
	m.calls++
	return m.report, m.err
}

func (m *mockIndexBuilder) Location() string {
	return "mock://bookings.csv"
}

func franceAnswer() *domain.Answer {
	return &domain.Answer{
		Context: domain.RetrievedContext{Entries: []domain.ScoredEntry{{
			Entry: domain.IndexEntry{
				DocumentID: 1,
				Text:       "Booking at Resort Hotel from FRA.",
				Metadata:   domain.Metadata{domain.MetaCountry: "FRA"},
			},
			Similarity: 0.91,
		}}},
		Text:     "One booking came from France.",
		Validity: domain.ValidityValid,
	}
}

func loadedHealth() domain.Health {
	return domain.Health{
		IndexLoaded: true,
		EntryCount:  3,
		Dimension:   4,
		BuiltAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
