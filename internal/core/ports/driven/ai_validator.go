package driven

import "github.com/custodia-labs/hotelrag/internal/core/domain"

// AIConfigValidator probes provider settings before they are relied on.
// Settings that name no usable provider validate as nil.
type AIConfigValidator interface {
	// ValidateEmbedding fails when the embedding provider cannot be built or does not answer.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM fails when the LLM provider cannot be built or does not answer.
	ValidateLLM(settings *domain.LLMSettings) error
}
