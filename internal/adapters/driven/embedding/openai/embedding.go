// Package openai provides an embedding service adapter for OpenAI-compatible
// APIs. Mistral uses the same wire format and is served by this adapter with
// a different base URL.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/hotelrag/internal/adapters/driven/providerhttp"
	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// Name labels errors and logs (default: openai). Use "mistral" for Mistral.
	Name string

	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Mistral, Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only sent to text-embedding-3-* models.
	Dimensions int
}

// EmbeddingService generates embeddings using an OpenAI-compatible API.
type EmbeddingService struct {
	http       *providerhttp.Client
	baseURL    string
	model      string
	dimensions atomic.Int64
}

// embeddingRequest is the /embeddings request format.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the /embeddings response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewEmbeddingService creates a new OpenAI-compatible embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w: API key is required", cfg.Name, domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	// Zero is resolved from the first response.
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)

	s := &EmbeddingService{
		http:    providerhttp.New(cfg.Name, &http.Client{Timeout: cfg.Timeout}, header),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
	s.dimensions.Store(int64(dimensions))
	return s, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{
		Model: s.model,
		Input: texts,
	}
	if s.model == "text-embedding-3-small" || s.model == "text-embedding-3-large" {
		reqBody.Dimensions = s.Dimensions()
	}

	var resp embeddingResponse
	url := providerhttp.JoinURL(s.baseURL, "/embeddings")
	if err := s.http.DoJSON(ctx, http.MethodPost, url, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, s.http.Malformed("got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	// Results are placed by index; the API does not promise order.
	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) || embeddings[data.Index] != nil {
			return nil, s.http.Malformed("unexpected embedding index %d", data.Index)
		}
		vec, err := s.http.Float32s(data.Embedding)
		if err != nil {
			return nil, err
		}
		embeddings[data.Index] = vec
	}

	s.dimensions.CompareAndSwap(0, int64(len(embeddings[0])))
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return int(s.dimensions.Load())
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This validates the API key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.http.DoJSON(ctx, http.MethodGet, providerhttp.JoinURL(s.baseURL, "/models"), nil, nil)
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
