package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

func TestExtractMetric(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid analytics URI",
			uri:      "hotelrag://analytics/cancellation_rate",
			expected: "cancellation_rate",
		},
		{
			name:     "invalid prefix",
			uri:      "file://analytics/cancellation_rate",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractMetric(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleHealthResource(t *testing.T) {
	rag := &mockRAGService{health: domain.Health{IndexLoaded: true, EntryCount: 3, Dimension: 4}}
	server := newTestServer(t, &Ports{RAG: rag})

	result, err := server.handleHealthResource(context.Background(), makeReadResourceRequest("hotelrag://health"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var got domain.Health
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
	assert.Equal(t, rag.health, got)
}

func TestServer_handleHistoryResource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history is an empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{RAG: &mockRAGService{}})

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("hotelrag://history"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("keeps the most recent entries", func(t *testing.T) {
		entries := make([]domain.QueryHistoryEntry, historyResourceLimit+10)
		for i := range entries {
			entries[i] = domain.QueryHistoryEntry{ID: fmt.Sprintf("e%d", i), Query: "q"}
		}
		rag := &mockRAGService{history: entries}
		server := newTestServer(t, &Ports{RAG: rag})

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("hotelrag://history"))

		require.NoError(t, err)
		var got []domain.QueryHistoryEntry
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, historyResourceLimit)
		assert.Equal(t, "e10", got[0].ID)
		assert.Equal(t, fmt.Sprintf("e%d", historyResourceLimit+9), got[len(got)-1].ID)
		assert.Equal(t, 0, rag.lastLim)
	})

	t.Run("returns error", func(t *testing.T) {
		server := newTestServer(t, &Ports{RAG: &mockRAGService{err: errors.New("read failed")}})

		_, err := server.handleHistoryResource(ctx, makeReadResourceRequest("hotelrag://history"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading history")
	})
}

func TestServer_handleAnalyticsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns metric", func(t *testing.T) {
		analytics := &mockAnalyticsService{data: []domain.HotelCount{{Hotel: "City Hotel", Bookings: 2}}}
		server := newTestServer(t, &Ports{RAG: &mockRAGService{}, Analytics: analytics})

		result, err := server.handleAnalyticsResource(ctx, makeReadResourceRequest("hotelrag://analytics/hotel_distribution"))

		require.NoError(t, err)
		var got []domain.HotelCount
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, analytics.data, got)
	})

	t.Run("unknown metric is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{RAG: &mockRAGService{}, Analytics: &mockAnalyticsService{}})

		_, err := server.handleAnalyticsResource(ctx, makeReadResourceRequest("hotelrag://analytics/weather"))

		assert.Error(t, err)
	})

	t.Run("no analytics service is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{RAG: &mockRAGService{}})

		_, err := server.handleAnalyticsResource(ctx, makeReadResourceRequest("hotelrag://analytics/hotel_distribution"))

		assert.Error(t, err)
	})

	t.Run("metric failure", func(t *testing.T) {
		analytics := &mockAnalyticsService{err: domain.ErrInvalidInput}
		server := newTestServer(t, &Ports{RAG: &mockRAGService{}, Analytics: analytics})

		_, err := server.handleAnalyticsResource(ctx, makeReadResourceRequest("hotelrag://analytics/revenue_trends"))

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
