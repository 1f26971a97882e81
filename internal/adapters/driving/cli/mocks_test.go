package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// mockRAGService implements driving.RAGService for CLI tests.
type mockRAGService struct {
	answer   *domain.Answer
	deltas   []string
	err      error
	history  []domain.QueryHistoryEntry
	health   domain.Health
	lastOpts domain.QueryOptions
	lastQ    string
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
	m.lastQ, m.lastOpts = query, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
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

// mockAnalyticsService implements driving.AnalyticsService for CLI tests.
type mockAnalyticsService struct {
	report *domain.AnalyticsReport
	err    error
}

func (m *mockAnalyticsService) Report(_ context.Context) (*domain.AnalyticsReport, error) {
	return m.report, m.err
}

func (m *mockAnalyticsService) Metric(_ context.Context, metric domain.AnalyticsMetric) (any, error) {
	if !metric.IsValid() {
		return nil, domain.ErrUnsupportedType
	}
	return m.report.HotelDistribution, m.err
}

// mockIndexBuilder implements driving.IndexBuilder for CLI tests.
type mockIndexBuilder struct {
	report *domain.BuildReport
	err    error
}

func (m *mockIndexBuilder) Rebuild(_ context.Context) (*domain.BuildReport, error) {
	return m.report, m.err
}

func (m *mockIndexBuilder) Location() string {
	return "testdata/bookings.csv"
}

// mockSettingsService implements driving.SettingsService for CLI tests.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	set         map[string]string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return nil
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	rag       *mockRAGService
	analytics *mockAnalyticsService
	builder   *mockIndexBuilder
	settings  *mockSettingsService
}

func franceAnswer() *domain.Answer {
	return &domain.Answer{
		Query: "Which bookings came from France?",
		Context: domain.RetrievedContext{Entries: []domain.ScoredEntry{{
			Entry: domain.IndexEntry{
				DocumentID: 1,
				Text:       "Booking at Resort Hotel from FRA, arriving 2017-07-01.",
			},
			Similarity: 0.912,
		}}},
		Text:     "One booking came from France.",
		Validity: domain.ValidityValid,
	}
}

// setupTestServices installs mock services and returns a cleanup function.
func setupTestServices() (*testServices, func()) {
	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"}
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderMistral, Model: "mistral-medium", APIKey: "sk-1234567890abcdef"}

	ts := &testServices{
		rag: &mockRAGService{
			answer: franceAnswer(),
			health: domain.Health{
				IndexLoaded: true,
				EntryCount:  3,
				Dimension:   768,
				BuiltAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			},
		},
		analytics: &mockAnalyticsService{report: &domain.AnalyticsReport{
			HotelDistribution: []domain.HotelCount{{Hotel: "City Hotel", Bookings: 2}},
		}},
		builder: &mockIndexBuilder{report: &domain.BuildReport{
			Indexed:   3,
			Skipped:   []*domain.RecordError{{RecordID: 4, Field: "adr", Reason: "must be >= 0"}},
			Dimension: 768,
			Duration:  1200 * time.Millisecond,
		}},
		settings: &mockSettingsService{settings: settings},
	}

	SetServices(&Services{
		RAG:       ts.rag,
		Analytics: ts.analytics,
		Settings:  ts.settings,
		Builder:   ts.builder,
	})

	return ts, func() {
		SetServices(nil)
		resetFlags()
	}
}

// resetFlags restores every flag to its default and clears Changed,
// since cobra keeps parsed state between Execute calls.
func resetFlags() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					_ = sv.Replace(nil)
				} else {
					_ = f.Value.Set(f.DefValue)
				}
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
	rootCmd.SetArgs(nil)
	rootCmd.SetIn(nil)
}
