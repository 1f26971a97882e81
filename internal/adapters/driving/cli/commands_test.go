package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"ask", "analytics", "build", "health", "history", "mcp", "serve", "settings", "tui", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	for _, name := range []string{"verbose", "data-dir", "config-dir", "in-memory"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"degraded", fmt.Errorf("ask: %w", domain.ErrEmbeddingUnavailable), ExitDegraded},
		{"no index", domain.ErrIndexNotLoaded, ExitDegraded},
		{"bad request", domain.ErrInvalidInput, ExitBadRequest},
		{"unknown metric", domain.ErrUnsupportedType, ExitBadRequest},
		{"other", errors.New("boom"), ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestBootstrap_BuildsServicesOnce(t *testing.T) {
	defer SetBootstrap(nil)
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(nil)

	var got Options
	calls := 0
	closed := false
	SetBootstrap(func(_ context.Context, opts Options) (*Services, error) {
		calls++
		got = opts
		return &Services{
			RAG:   &mockRAGService{health: domain.Health{IndexLoaded: true, EntryCount: 7}},
			Close: func() error { closed = true; return nil },
		}, nil
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--data-dir", "/tmp/hr", "--in-memory", "health"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "/tmp/hr", got.DataDir)
	assert.True(t, got.InMemory)
	assert.Contains(t, buf.String(), "Records: 7")
	assert.True(t, closed)
}

func TestBootstrap_SkippedForVersion(t *testing.T) {
	defer SetBootstrap(nil)
	_, cleanup := setupTestServices()
	defer cleanup()

	SetBootstrap(func(context.Context, Options) (*Services, error) {
		return nil, errors.New("should not be called")
	})

	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "hotelrag version")
}

func TestBootstrap_ErrorFailsCommand(t *testing.T) {
	defer SetBootstrap(nil)
	_, cleanup := setupTestServices()
	defer cleanup()

	SetBootstrap(func(context.Context, Options) (*Services, error) {
		return nil, fmt.Errorf("open store: %w", errors.New("locked"))
	})

	_, err := execute(t, "health")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open store")
}

func TestBuildCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "build", "--records", "other.csv")

	require.NoError(t, err)
	assert.Contains(t, out, "Building index from testdata/bookings.csv")
	assert.Contains(t, out, "Indexed 3 records (1 skipped) in 1.2s")
	assert.Contains(t, out, "Embedding dimension: 768")
	assert.Contains(t, out, "record 4: adr: must be >= 0")
	assert.Equal(t, "other.csv", recordsPath)
	_ = ts
}

func TestBuildCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "build", "--json")

	require.NoError(t, err)
	var got buildOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Indexed)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, int64(1200), got.DurationMs)
}

func TestBuildCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.builder.err = fmt.Errorf("%w: no valid records to index", domain.ErrInvalidInput)
	ts.builder.report = &domain.BuildReport{Skipped: []*domain.RecordError{{RecordID: 0, Field: "hotel", Reason: "required"}}}

	out, err := execute(t, "build")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, ExitBadRequest, ExitCode(err))
	assert.Contains(t, out, "record 0: hotel: required")
}

func TestBuildCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	indexBuilder = nil

	_, err := execute(t, "build")

	assert.EqualError(t, err, "index builder not configured")
}

func TestAskCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "ask", "-k", "2", "--min-sim", "0.3", "--filter", "country=FRA", "--filter", "is_canceled=false",
		"Which", "bookings", "came", "from", "France?")

	require.NoError(t, err)
	assert.Contains(t, out, "One booking came from France.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[1] 0.912")

	assert.Equal(t, "Which bookings came from France?", ts.rag.lastQ)
	assert.Equal(t, 2, ts.rag.lastOpts.TopK)
	require.NotNil(t, ts.rag.lastOpts.MinSimilarity)
	assert.InDelta(t, 0.3, *ts.rag.lastOpts.MinSimilarity, 1e-9)
	assert.Equal(t, domain.Metadata{"country": "FRA", "is_canceled": false}, ts.rag.lastOpts.Filter)
}

func TestAskCmd_DefaultsLeaveMinSimilarityUnset(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ask", "France?")

	require.NoError(t, err)
	assert.Nil(t, ts.rag.lastOpts.MinSimilarity)
	assert.Zero(t, ts.rag.lastOpts.TopK)
	assert.Nil(t, ts.rag.lastOpts.Filter)
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ask")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAskCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "ask", "--json", "France?")

	require.NoError(t, err)
	var got askOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "One booking came from France.", got.Answer)
	assert.Equal(t, domain.StatusOK, got.Status)
	require.Len(t, got.Context, 1)
	assert.Equal(t, int64(1), got.Context[0].ID)
}

func TestAskCmd_Stream(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.rag.deltas = []string{"One booking ", "came from France."}

	out, err := execute(t, "ask", "--stream", "France?")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "One booking came from France.\n"), out)
	assert.Equal(t, 1, strings.Count(out, "One booking came from France."))
	assert.Contains(t, out, "Sources:")
}

func TestAskCmd_JSONAndStreamExclusive(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "ask", "--json", "--stream", "France?")

	assert.Error(t, err)
}

func TestAskCmd_NoData(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.rag.answer = &domain.Answer{Text: domain.NoContextAnswerText, Validity: domain.ValidityEmpty, NoContext: true}

	out, err := execute(t, "ask", "Mars?")

	require.NoError(t, err)
	assert.Contains(t, out, domain.NoContextAnswerText)
	assert.NotContains(t, out, "Sources:")
}

func TestAskCmd_Rejected(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.rag.answer.Text = domain.RejectedAnswerText
	ts.rag.answer.Validity = domain.ValidityRejected

	out, err := execute(t, "ask", "France?")

	require.NoError(t, err)
	assert.Contains(t, out, "failed validation")
}

func TestAskCmd_Degraded(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.rag.err = fmt.Errorf("embed query: %w", domain.ErrEmbeddingUnavailable)

	_, err := execute(t, "ask", "France?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "degraded")
	assert.Equal(t, ExitDegraded, ExitCode(err))
}

func TestParseFilters(t *testing.T) {
	f, err := parseFilters([]string{"hotel=City Hotel", "lead_time=42", "adr=98.5", "is_canceled=true"})
	require.NoError(t, err)
	assert.Equal(t, domain.Metadata{
		"hotel":       "City Hotel",
		"lead_time":   int64(42),
		"adr":         98.5,
		"is_canceled": true,
	}, f)

	f, err = parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = parseFilters([]string{"country"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = parseFilters([]string{"=FRA"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééééééé...", truncate(strings.Repeat("é", 20), 10))
}

func TestHistoryCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.rag.history = []domain.QueryHistoryEntry{{
		ID:         "e1",
		Query:      "France?",
		Answer:     "One booking came from France.",
		Validity:   domain.ValidityValid,
		ContextIDs: []int64{1},
	}}

	out, err := execute(t, "history", "-n", "5", "--offset", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "France? (valid)")
	assert.Contains(t, out, "records: [1]")
	assert.Equal(t, 5, ts.rag.lastLim)
	assert.Equal(t, 1, ts.rag.lastOff)
}

func TestHistoryCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "history")

	require.NoError(t, err)
	assert.Contains(t, out, "No questions answered yet.")
}

func TestHistoryCmd_JSONEmptyList(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "history", "--json")

	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestHealthCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "health")

	require.NoError(t, err)
	assert.Contains(t, out, "Loaded: yes")
	assert.Contains(t, out, "Records: 3")
	assert.Contains(t, out, "Dimension: 768")
}

func TestHealthCmd_NoIndex(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.rag.health = domain.Health{}

	out, err := execute(t, "health")

	assert.ErrorIs(t, err, domain.ErrIndexNotLoaded)
	assert.Equal(t, ExitDegraded, ExitCode(err))
	assert.Contains(t, out, "Loaded: no")
	assert.Contains(t, out, "hotelrag build")
}

func TestHealthCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "health", "--json")

	require.NoError(t, err)
	var got domain.Health
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.IndexLoaded)
	assert.Equal(t, 768, got.Dimension)
}

func TestAnalyticsCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "analytics")
	require.NoError(t, err)
	assert.Contains(t, out, `"hotel_distribution"`)

	out, err = execute(t, "analytics", "hotel_distribution")
	require.NoError(t, err)
	assert.Contains(t, out, `"City Hotel"`)

	_, err = execute(t, "analytics", "weather")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = execute(t, "analytics", "a", "b")
	assert.Error(t, err)
}

func TestAnalyticsCmd_ValidArgs(t *testing.T) {
	assert.ElementsMatch(t, []string{
		"revenue_trends", "cancellation_rate", "geographical_distribution",
		"lead_time_distribution", "hotel_distribution",
	}, analyticsCmd.ValidArgs)
}

func TestServeCmd_Flags(t *testing.T) {
	port := serveCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "8000", port.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("watch"))
	assert.NotNil(t, serveCmd.Flags().Lookup("records"))
}

func TestServeCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	ragService = nil

	_, err := execute(t, "serve")

	assert.EqualError(t, err, "rag service not configured")
}

func TestMCPServeCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	ragService = nil

	_, err := execute(t, "mcp", "serve")

	assert.EqualError(t, err, "rag service not configured")
}
