package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc, model string) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL, Model: model})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test"})

	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{Name: "mistral"})

	require.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Contains(t, err.Error(), "mistral")
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"first", "second"}, req.Input)
		assert.Equal(t, "mistral-embed", req.Model)
		assert.Zero(t, req.Dimensions)

		// Out of order on purpose.
		_, _ = w.Write([]byte(`{"data": [
			{"index": 1, "embedding": [0, 1]},
			{"index": 0, "embedding": [1, 0]}
		]}`))
	}, "mistral-embed")

	got, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)
}

func TestEmbeddingService_SendsDimensionsForV3Models(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1536, req.Dimensions)
		_, _ = w.Write([]byte(`{"data": [{"index": 0, "embedding": [0.5]}]}`))
	}, "text-embedding-3-small")

	got, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, got)
}

func TestEmbeddingService_LearnsUnknownDimension(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"index": 0, "embedding": [1, 2, 3]}]}`))
	}, "custom-model")
	assert.Zero(t, svc.Dimensions())

	_, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, 3, svc.Dimensions())
}

func TestEmbeddingService_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error": {"message": "rate limit"}}`, domain.ErrProviderTransient},
		{"server error", http.StatusInternalServerError, `oops`, domain.ErrProviderTransient},
		{"bad key", http.StatusUnauthorized, `{"error": {"message": "invalid key"}}`, domain.ErrProviderRejected},
		{"count mismatch", http.StatusOK, `{"data": []}`, domain.ErrMalformedResponse},
		{"empty vector", http.StatusOK, `{"data": [{"index": 0, "embedding": []}]}`, domain.ErrMalformedResponse},
		{"bad index", http.StatusOK, `{"data": [{"index": 4, "embedding": [1]}]}`, domain.ErrMalformedResponse},
		{"not json", http.StatusOK, `<html>`, domain.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, DefaultModel)

			_, err := svc.Embed(context.Background(), "hello")

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEmbeddingService_EmptyBatch(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	got, err := svc.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEmbeddingService_Ping(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": []}`))
	}, DefaultModel)

	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
