package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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
	return NewLLMService(LLMConfig{BaseURL: server.URL})
}

func TestLLMService_Generate(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultLLMModel, req.Model)
		assert.Equal(t, "question", req.Prompt)
		assert.Equal(t, "system text", req.System)
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.Equal(t, 128, req.Options.NumPredict)
		assert.Equal(t, []string{"###"}, req.Options.Stop)

		_, _ = w.Write([]byte(`{"response": "answer", "done": true}`))
	})

	got, err := svc.Generate(context.Background(), "question", driven.GenerateOptions{
		System: "system text", MaxTokens: 128, StopWords: []string{"###"},
	})

	require.NoError(t, err)
	assert.Equal(t, "answer", got)
}

func TestLLMService_GenerateModelError(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model 'llama3.2' not found"}`))
	})

	_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})

	require.ErrorIs(t, err, domain.ErrProviderRejected)
	assert.Contains(t, err.Error(), "not found")
}

func TestLLMService_Chat(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 2)
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "hi"}, "done": true}`))
	})

	got, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "s"}, {Role: "user", Content: "u"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestLLMService_GenerateStream(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		for _, part := range []string{"Resort ", "Hotel"} {
			_, _ = fmt.Fprintf(w, "{\"response\": %q, \"done\": false}\n", part)
		}
		_, _ = fmt.Fprint(w, "{\"response\": \"\", \"done\": true}\n")
	})

	var deltas []string
	got, err := svc.GenerateStream(context.Background(), "q", driven.GenerateOptions{}, func(d string) {
		deltas = append(deltas, d)
	})

	require.NoError(t, err)
	assert.Equal(t, "Resort Hotel", got)
	assert.Equal(t, []string{"Resort ", "Hotel"}, deltas)
}

func TestLLMService_GenerateStreamErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"no done", "{\"response\": \"a\", \"done\": false}\n", domain.ErrMalformedResponse},
		{"bad line", "not json\n", domain.ErrMalformedResponse},
		{"error line", "{\"error\": \"out of memory\"}\n", domain.ErrProviderTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = fmt.Fprint(w, tt.body)
			})

			_, err := svc.GenerateStream(context.Background(), "q", driven.GenerateOptions{}, nil)

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLLMService_PingAndDefaults(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models": []}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.NoError(t, svc.Close())
}
