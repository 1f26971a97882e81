// Package ollama provides an embedding service adapter using Ollama.
package ollama

import (
	"context"
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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions is the embedding vector size. Zero looks the model up in
	// the known model table, then learns it from the first response.
	Dimensions int
}

// EmbeddingService generates embeddings using Ollama.
type EmbeddingService struct {
	http       *providerhttp.Client
	baseURL    string
	model      string
	dimensions atomic.Int64
}

// embedRequest is the /api/embed request format.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the /api/embed response format.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}

	s := &EmbeddingService{
		http:    providerhttp.New("ollama", &http.Client{Timeout: cfg.Timeout}, nil),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
	s.dimensions.Store(int64(cfg.Dimensions))
	return s
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one /api/embed call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	url := providerhttp.JoinURL(s.baseURL, "/api/embed")
	if err := s.http.DoJSON(ctx, http.MethodPost, url, embedRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, s.http.Malformed("got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for i, raw := range resp.Embeddings {
		vec, err := s.http.Float32s(raw)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vec
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

// Ping validates Ollama is reachable by checking the /api/tags endpoint.
// This is lightweight and doesn't require loading the model.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.http.DoJSON(ctx, http.MethodGet, providerhttp.JoinURL(s.baseURL, "/api/tags"), nil, nil)
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
