package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by building a throwaway client and
// pinging it. Unconfigured settings pass.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator returns a validator that waits pingTimeout per check.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// WithTimeout overrides the per-check timeout.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	v.timeout = d
	return v
}

// ValidateEmbedding reports whether the embedding provider answers.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()
	if err := v.ping(svc.Ping); err != nil {
		return fmt.Errorf("%w: %s at %s: %w", domain.ErrEmbeddingUnavailable,
			settings.Provider, baseURL(settings.Provider, settings.BaseURL), err)
	}
	return nil
}

// ValidateLLM reports whether the LLM provider answers.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()
	if err := v.ping(svc.Ping); err != nil {
		return fmt.Errorf("%w: %s at %s: %w", domain.ErrGenerationUnavailable,
			settings.Provider, baseURL(settings.Provider, settings.BaseURL), err)
	}
	return nil
}

func (v *ConfigValidator) ping(ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return ping(ctx)
}
