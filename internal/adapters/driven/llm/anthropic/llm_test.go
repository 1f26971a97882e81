package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{APIKey: "sk-ant", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	svc, err := NewLLMService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestLLMService_Generate(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "answer from records", req.System)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		require.NotNil(t, req.Temperature)
		assert.Zero(t, *req.Temperature)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"content": [
			{"type": "text", "text": "Two "},
			{"type": "text", "text": "bookings."}
		], "stop_reason": "end_turn"}`))
	})

	got, err := svc.Generate(context.Background(), "how many?", driven.GenerateOptions{System: "answer from records"})

	require.NoError(t, err)
	assert.Equal(t, "Two bookings.", got)
}

func TestLLMService_ChatLiftsSystemMessages(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "one\n\ntwo", req.System)
		assert.Len(t, req.Messages, 1)
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "ok"}]}`))
	})

	got, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "one"},
		{Role: "system", Content: "two"},
		{Role: "user", Content: "hi"},
	}, driven.ChatOptions{MaxTokens: 50})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestLLMService_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"overloaded", 529, `{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`, domain.ErrProviderTransient},
		{"bad key", http.StatusUnauthorized, `{"type": "error", "error": {"message": "invalid x-api-key"}}`, domain.ErrProviderRejected},
		{"refusal", http.StatusOK, `{"content": [], "stop_reason": "refusal"}`, domain.ErrProviderRejected},
		{"no text", http.StatusOK, `{"content": [{"type": "tool_use"}]}`, domain.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLLMService_Ping(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": []}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func sse(events ...string) string {
	var b strings.Builder
	for _, e := range events {
		b.WriteString("event: x\ndata: " + e + "\n\n")
	}
	return b.String()
}

func TestLLMService_GenerateStream(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "records", req.System)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sse(
			`{"type": "message_start", "message": {}}`,
			`{"type": "content_block_start", "index": 0}`,
			`{"type": "content_block_delta", "delta": {"type": "text_delta", "text": "Two "}}`,
			`{"type": "ping"}`,
			`{"type": "content_block_delta", "delta": {"type": "text_delta", "text": "bookings."}}`,
			`{"type": "message_delta", "delta": {"stop_reason": "end_turn"}}`,
			`{"type": "message_stop"}`,
		)))
	})

	var deltas []string
	got, err := svc.GenerateStream(context.Background(), "how many?",
		driven.GenerateOptions{System: "records"}, func(d string) { deltas = append(deltas, d) })

	require.NoError(t, err)
	assert.Equal(t, "Two bookings.", got)
	assert.Equal(t, []string{"Two ", "bookings."}, deltas)
}

func TestLLMService_GenerateStream_Failures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		want     error
		wantText string
	}{
		{
			name: "error event",
			body: sse(`{"type": "content_block_delta", "delta": {"type": "text_delta", "text": "Par"}}`,
				`{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`),
			want:     domain.ErrProviderTransient,
			wantText: "Par",
		},
		{
			name: "refusal",
			body: sse(`{"type": "message_delta", "delta": {"stop_reason": "refusal"}}`, `{"type": "message_stop"}`),
			want: domain.ErrProviderRejected,
		},
		{
			name: "truncated",
			body: sse(`{"type": "content_block_delta", "delta": {"type": "text_delta", "text": "Half"}}`),
			want:     domain.ErrMalformedResponse,
			wantText: "Half",
		},
		{
			name: "bad json",
			body: "data: {nope\n\n",
			want: domain.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := svc.GenerateStream(context.Background(), "q", driven.GenerateOptions{}, nil)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.wantText, got)
		})
	}
}
