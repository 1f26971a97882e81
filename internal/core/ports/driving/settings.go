package driving

import "github.com/custodia-labs/hotelrag/internal/core/domain"

// SettingsService reads and edits the settings that drive providers,
// retrieval and composition.
type SettingsService interface {
	// Get returns stored settings over defaults, then environment overrides.
	Get() (*domain.AppSettings, error)

	Save(settings *domain.AppSettings) error

	// Set parses value for a dotted key such as "retrieval.top_k" and stores it.
	// Unknown keys and out-of-range values are rejected without writing.
	Set(key, value string) error

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate reports range and consistency errors in the current settings.
	Validate() error

	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}
