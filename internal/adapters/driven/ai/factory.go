// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/hotelrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/hotelrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/hotelrag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/hotelrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/hotelrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI services built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues, e.g. an unreachable provider.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates the embedding and LLM services. When ping is set, each is
// checked for connectivity and an unreachable service becomes a warning;
// the service is still returned so retries can recover once it is back.
// A service whose settings are incomplete is left nil.
func Init(settings *domain.AppSettings, ping bool) (*InitResult, error) {
	result := &InitResult{}

	embed, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	result.EmbeddingService = embed

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	result.LLMService = llm

	if !ping {
		return result, nil
	}
	if embed != nil {
		if err := pingService(embed.Ping); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("embedding service unreachable: %v", err))
		}
	}
	if llm != nil {
		if err := pingService(llm.Ping); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("LLM service unreachable: %v", err))
		}
	}
	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI, domain.AIProviderMistral:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			Name:    settings.Provider.String(),
			APIKey:  settings.APIKey,
			BaseURL: baseURL(settings.Provider, settings.BaseURL),
			Model:   model(settings.Model, domain.DefaultEmbeddingModels()[settings.Provider]),
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama, openai or mistral",
			domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI, domain.AIProviderMistral:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			Name:    settings.Provider.String(),
			APIKey:  settings.APIKey,
			BaseURL: baseURL(settings.Provider, settings.BaseURL),
			Model:   model(settings.Model, domain.DefaultLLMModels()[settings.Provider]),
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

func baseURL(provider domain.AIProvider, configured string) string {
	if configured != "" {
		return configured
	}
	return domain.DefaultBaseURLs()[provider]
}

func model(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

func pingService(ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return ping(ctx)
}
