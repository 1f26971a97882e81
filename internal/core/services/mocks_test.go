package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// embedFn defaults to featureVector for every text.
type mockEmbeddingService struct {
	mu      sync.Mutex
	calls   int
	batches [][]string
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
	model   string
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.batches = append(m.batches, append([]string(nil), texts...))
	fn := m.embedFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = featureVector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(featureVector(""))
}

func (m *mockEmbeddingService) ModelName() string {
	if m.model == "" {
		return "feature-test"
	}
	return m.model
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var revenuePattern = regexp.MustCompile(`(?:\$|total revenue )(\d+)`)

// featureVector maps text onto hand-picked booking features:
// [french, german, not cancelled, cancelled, high spend, bias].
func featureVector(text string) []float32 {
	v := make([]float32, 6)
	lower := strings.ToLower(text)

	if strings.Contains(lower, "france") || strings.Contains(lower, "french") || strings.Contains(text, "FRA") {
		v[0] = 1
	}
	if strings.Contains(lower, "germany") || strings.Contains(lower, "german") || strings.Contains(text, "DEU") {
		v[1] = 1
	}
	switch {
	case strings.Contains(lower, "not cancel"), strings.Contains(lower, "did not cancel"):
		v[2] = 1
	case strings.Contains(lower, "cancel"):
		v[3] = 1
	}
	if strings.Contains(lower, "high spend") {
		v[4] = 1
	} else if m := revenuePattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 500 {
			v[4] = 1
		}
	}
	v[5] = 0.1
	return v
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu         sync.Mutex
	calls      int
	prompts    []string
	opts       []driven.GenerateOptions
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	fn := m.generateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return "The French guest spent 800.00 over 5 nights.", nil
}

func (m *mockLLMService) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return "", domain.ErrNotImplemented
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

func (m *mockLLMService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockStreamingLLM implements driven.StreamingLLMService for testing.
// failures[i], when set, ends stream call i after failAfter[i] chunks.
type mockStreamingLLM struct {
	mockLLMService
	chunks    []string
	failures  []error
	failAfter []int
	streams   int
}

func (m *mockStreamingLLM) GenerateStream(
	_ context.Context, _ string, _ driven.GenerateOptions, onDelta func(string),
) (string, error) {
	m.mu.Lock()
	call := m.streams
	m.streams++
	m.mu.Unlock()

	var b strings.Builder
	for i, c := range m.chunks {
		if call < len(m.failures) && m.failures[call] != nil && i == m.failAfter[call] {
			return b.String(), m.failures[call]
		}
		onDelta(c)
		b.WriteString(c)
	}
	return b.String(), nil
}

// mockIndexStore implements driven.IndexStore for testing.
type mockIndexStore struct {
	mu       sync.Mutex
	snapshot *domain.IndexSnapshot
	saves    int
	saveErr  error
	loadErr  error
}

func (m *mockIndexStore) Save(_ context.Context, snapshot domain.IndexSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.snapshot = &snapshot
	return nil
}

func (m *mockIndexStore) Load(_ context.Context) (*domain.IndexSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.snapshot == nil {
		return nil, domain.ErrNotFound
	}
	return m.snapshot, nil
}

// mockHistoryStore implements driven.HistoryStore for testing.
type mockHistoryStore struct {
	mu        sync.Mutex
	entries   []domain.QueryHistoryEntry
	appendErr error
}

func (m *mockHistoryStore) Append(_ context.Context, entry domain.QueryHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockHistoryStore) List(_ context.Context, limit, offset int) ([]domain.QueryHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.entries) {
		return nil, nil
	}
	end := len(m.entries)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]domain.QueryHistoryEntry(nil), m.entries[offset:end]...), nil
}

// mockRecordSource implements driven.RecordSource for testing.
type mockRecordSource struct {
	records []domain.BookingRecord
	skipped []*domain.RecordError
	err     error
	loads   int
}

func (m *mockRecordSource) Load(_ context.Context) ([]domain.BookingRecord, []*domain.RecordError, error) {
	m.loads++
	return m.records, m.skipped, m.err
}

func (m *mockRecordSource) Location() string {
	return "mock://bookings.csv"
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	lastEmbed    *domain.EmbeddingSettings
	lastLLM      *domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.lastEmbed = cfg
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	m.lastLLM = cfg
	return m.llmErr
}

// --- Fixtures ---

func testRecords() []domain.BookingRecord {
	return []domain.BookingRecord{
		{
			ID: 1, Hotel: "Resort Hotel", ArrivalDate: date(2016, 7, 14), LeadTime: 45,
			StaysWeekendNights: 2, StaysWeekNights: 3, Adults: 2, ReservedRoomType: "A",
			ADR: 160, Country: "FRA", ReservationStatus: domain.ReservationCheckOut,
		},
		{
			ID: 2, Hotel: "City Hotel", ArrivalDate: date(2016, 8, 2), LeadTime: 120,
			StaysWeekNights: 2, Adults: 1, ReservedRoomType: "D",
			ADR: 100, Country: "DEU", IsCanceled: true, ReservationStatus: domain.ReservationCanceled,
		},
		{
			ID: 3, Hotel: "City Hotel", ArrivalDate: date(2017, 1, 20), LeadTime: 3,
			StaysWeekNights: 1, Adults: 2, ReservedRoomType: "A",
			ADR: 150, Country: "FRA", ReservationStatus: domain.ReservationCheckOut,
		},
	}
}

// fastEmbeddingConfig retries without meaningful delays.
func fastEmbeddingConfig() EmbeddingClientConfig {
	return EmbeddingClientConfig{
		BatchSize:      64,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
		CallTimeout:    time.Second,
	}
}

func fastComposerConfig() ComposerConfig {
	return ComposerConfig{
		Temperature:     0.1,
		MaxTokens:       256,
		MaxContextChars: 6000,
		MaxAnswerChars:  2000,
		MaxAttempts:     2,
		Backoff:         time.Millisecond,
		CallTimeout:     time.Second,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
