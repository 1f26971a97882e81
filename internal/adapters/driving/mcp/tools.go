package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// defaultHistoryLimit is the number of history entries returned when no limit is given.
const defaultHistoryLimit = 20

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question      string         `json:"question" jsonschema:"the question about hotel bookings"`
	TopK          int            `json:"top_k,omitempty" jsonschema:"number of booking records to use as context (default from settings)"`
	MinSimilarity *float64       `json:"min_similarity,omitempty" jsonschema:"drop records scoring below this cosine similarity"`
	Filter        map[string]any `json:"filter,omitempty" jsonschema:"metadata equality filter such as {\"country\": \"FRA\"}"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string          `json:"answer"`
	Validity  string          `json:"validity"`
	NoContext bool            `json:"no_context"`
	Status    string          `json:"status"`
	Context   []ContextRecord `json:"context"`
}

// ContextRecord is one booking record used to answer a question.
type ContextRecord struct {
	ID         int64          `json:"id"`
	Similarity float64        `json:"similarity"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// HistoryInput is the input schema for the history tool.
type HistoryInput struct {
	Limit  int `json:"limit,omitempty" jsonschema:"maximum number of entries to return (default 20)"`
	Offset int `json:"offset,omitempty" jsonschema:"number of oldest entries to skip"`
}

// HistoryOutput is the output schema for the history tool.
type HistoryOutput struct {
	Entries []HistoryEntry `json:"entries"`
	Count   int            `json:"count"`
}

// HistoryEntry is one answered question.
type HistoryEntry struct {
	ID         string  `json:"id"`
	Query      string  `json:"query"`
	Answer     string  `json:"answer"`
	Validity   string  `json:"validity"`
	ContextIDs []int64 `json:"context_ids"`
	Timestamp  string  `json:"timestamp"`
}

// HealthInput is the input schema for the health tool.
type HealthInput struct{}

// HealthOutput is the output schema for the health tool.
type HealthOutput struct {
	IndexLoaded bool   `json:"index_loaded"`
	EntryCount  int    `json:"entry_count"`
	Dimension   int    `json:"dimension"`
	BuiltAt     string `json:"built_at,omitempty"`
	Status      string `json:"status"`
}

// AnalyticsInput is the input schema for the analytics tool.
type AnalyticsInput struct {
	Metric string `json:"metric,omitempty" jsonschema:"one of revenue_trends, cancellation_rate, geographical_distribution, lead_time_distribution, hotel_distribution; empty for all"`
}

// AnalyticsOutput is the output schema for the analytics tool.
type AnalyticsOutput struct {
	Metric string `json:"metric,omitempty"`
	Data   any    `json:"data"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about hotel bookings using the most similar booking records",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "history",
		Description: "List previously answered questions, oldest first",
	}, s.handleHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "health",
		Description: "Report whether a booking index is loaded and how many records it holds",
	}, s.handleHealth)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analytics",
		Description: "Compute booking statistics: revenue, cancellations, countries, lead times, hotels",
	}, s.handleAnalytics)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	filter, err := domain.FilterFromJSON(input.Filter)
	if err != nil {
		return nil, AskOutput{}, err
	}

	opts := domain.QueryOptions{
		TopK:          input.TopK,
		MinSimilarity: input.MinSimilarity,
		Filter:        filter,
	}
	answer, err := s.ports.RAG.AnswerQuery(ctx, input.Question, opts)
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("%s: %w", domain.StatusOf(err, nil), err)
	}

	output := AskOutput{
		Answer:    answer.Text,
		Validity:  answer.Validity.String(),
		NoContext: answer.NoContext,
		Status:    string(domain.StatusOf(nil, answer)),
		Context:   make([]ContextRecord, len(answer.Context.Entries)),
	}
	for i, e := range answer.Context.Entries {
		output.Context[i] = ContextRecord{
			ID:         e.Entry.DocumentID,
			Similarity: e.Similarity,
			Text:       e.Entry.Text,
			Metadata:   e.Entry.Metadata,
		}
	}

	return nil, output, nil
}

// handleHistory handles the history tool invocation.
func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	entries, err := s.ports.RAG.GetHistory(ctx, limit, max(input.Offset, 0))
	if err != nil {
		return nil, HistoryOutput{}, err
	}

	output := HistoryOutput{
		Entries: make([]HistoryEntry, len(entries)),
		Count:   len(entries),
	}
	for i := range entries {
		output.Entries[i] = HistoryEntry{
			ID:         entries[i].ID,
			Query:      entries[i].Query,
			Answer:     entries[i].Answer,
			Validity:   entries[i].Validity.String(),
			ContextIDs: entries[i].ContextIDs,
			Timestamp:  entries[i].Timestamp.Format(time.RFC3339),
		}
	}

	return nil, output, nil
}

// handleHealth handles the health tool invocation.
func (s *Server) handleHealth(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ HealthInput,
) (*mcp.CallToolResult, HealthOutput, error) {
	h := s.ports.RAG.Health()

	output := HealthOutput{
		IndexLoaded: h.IndexLoaded,
		EntryCount:  h.EntryCount,
		Dimension:   h.Dimension,
		Status:      string(domain.StatusOK),
	}
	if !h.BuiltAt.IsZero() {
		output.BuiltAt = h.BuiltAt.Format(time.RFC3339)
	}
	if !h.IndexLoaded {
		output.Status = string(domain.StatusDegraded)
	}

	return nil, output, nil
}

// handleAnalytics handles the analytics tool invocation.
func (s *Server) handleAnalytics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyticsInput,
) (*mcp.CallToolResult, AnalyticsOutput, error) {
	if s.ports.Analytics == nil {
		return nil, AnalyticsOutput{}, fmt.Errorf("analytics: %w", domain.ErrNotConfigured)
	}

	if input.Metric == "" {
		report, err := s.ports.Analytics.Report(ctx)
		if err != nil {
			return nil, AnalyticsOutput{}, err
		}
		return nil, AnalyticsOutput{Data: report}, nil
	}

	data, err := s.ports.Analytics.Metric(ctx, domain.AnalyticsMetric(input.Metric))
	if err != nil {
		return nil, AnalyticsOutput{}, err
	}
	return nil, AnalyticsOutput{Metric: input.Metric, Data: data}, nil
}
