package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// TextEmbedder produces embeddings with retries and batching applied.
type TextEmbedder interface {
	// EmbedOne embeds a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedMany embeds texts, returning one vector per text in the same order.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the underlying model name.
	ModelName() string
}

// Ensure EmbeddingClient implements the interface.
var _ TextEmbedder = (*EmbeddingClient)(nil)

// EmbeddingClientConfig tunes batching, pacing and retries.
type EmbeddingClientConfig struct {
	// BatchSize is the number of texts per provider request.
	BatchSize int

	// MaxAttempts is the total number of tries per batch.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration

	// Multiplier grows the delay after each retry.
	Multiplier float64

	// CallTimeout bounds each provider request.
	CallTimeout time.Duration

	// RequestsPerSecond limits provider requests. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the number of requests allowed at once when limiting.
	Burst int
}

// DefaultEmbeddingClientConfig returns the defaults used by the CLI.
func DefaultEmbeddingClientConfig() EmbeddingClientConfig {
	return EmbeddingClientConfigFrom(domain.DefaultAppSettings().Resilience)
}

// EmbeddingClientConfigFrom maps resilience settings onto a client config.
func EmbeddingClientConfigFrom(s domain.ResilienceSettings) EmbeddingClientConfig {
	return EmbeddingClientConfig{
		BatchSize:         s.BatchSize,
		MaxAttempts:       s.MaxAttempts,
		InitialBackoff:    time.Duration(s.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:        time.Duration(s.MaxBackoffMs) * time.Millisecond,
		Multiplier:        2,
		CallTimeout:       time.Duration(s.CallTimeoutSeconds) * time.Second,
		RequestsPerSecond: s.RequestsPerSecond,
		Burst:             1,
	}
}

// EmbeddingClient wraps an EmbeddingService with batching, rate limiting
// and bounded retries.
//
// Transient provider failures are retried up to MaxAttempts times in total;
// exhaustion yields domain.ErrEmbeddingUnavailable. Rejected input yields
// domain.ErrEmbeddingRejected immediately. Cancelling ctx stops work at once.
type EmbeddingClient struct {
	provider  driven.EmbeddingService
	batchSize int
	limiter   *rate.Limiter
	policy    retryPolicy
}

// NewEmbeddingClient creates an embedding client for provider.
func NewEmbeddingClient(provider driven.EmbeddingService, cfg EmbeddingClientConfig) *EmbeddingClient {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	c := &EmbeddingClient{
		provider:  provider,
		batchSize: cfg.BatchSize,
		policy: retryPolicy{
			name:           "embedding",
			maxAttempts:    cfg.MaxAttempts,
			initialBackoff: cfg.InitialBackoff,
			maxBackoff:     cfg.MaxBackoff,
			multiplier:     cfg.Multiplier,
			callTimeout:    cfg.CallTimeout,
		},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// ModelName returns the provider's model name.
func (c *EmbeddingClient) ModelName() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.ModelName()
}

// EmbedOne embeds a single text.
func (c *EmbeddingClient) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany embeds texts in batches, preserving order.
func (c *EmbeddingClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, domain.ErrNotConfigured)
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		logger.Debug("Embedding batch %d-%d of %d", start, end, len(texts))
		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *EmbeddingClient) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32

	outcome, err := c.policy.do(ctx, func(callCtx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(callCtx); err != nil {
				return fmt.Errorf("%w: rate limiter: %w", domain.ErrProviderTransient, err)
			}
		}

		got, err := c.provider.EmbedBatch(callCtx, batch)
		if err != nil {
			return err
		}
		if len(got) != len(batch) {
			return fmt.Errorf("%w: got %d embeddings for %d texts",
				domain.ErrMalformedResponse, len(got), len(batch))
		}
		for i, v := range got {
			if len(v) == 0 {
				return fmt.Errorf("%w: empty embedding at position %d", domain.ErrMalformedResponse, i)
			}
		}
		vectors = got
		return nil
	})

	switch {
	case err == nil:
		return vectors, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case outcome.permanent:
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingRejected, err)
	default:
		return nil, fmt.Errorf("%w after %d attempts: %w", domain.ErrEmbeddingUnavailable, outcome.attempts, err)
	}
}
