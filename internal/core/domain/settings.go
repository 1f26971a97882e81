package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderMistral is the Mistral cloud API (OpenAI-compatible wire format).
	AIProviderMistral AIProvider = "mistral"

	// AIProviderAnthropic is Anthropic cloud API (LLM only, no embeddings).
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderMistral, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderMistral || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderMistral:
		return "Mistral (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// RerankSignal selects the secondary ordering applied to near-tied candidates.
type RerankSignal string

// Available secondary ranking signals.
const (
	// RerankNone keeps pure similarity order.
	RerankNone RerankSignal = "none"

	// RerankRevenue prefers higher total revenue among near-ties.
	RerankRevenue RerankSignal = "revenue"

	// RerankRecency prefers later arrival dates among near-ties.
	RerankRecency RerankSignal = "recency"
)

// IsValid returns true if the signal is recognised.
func (s RerankSignal) IsValid() bool {
	switch s {
	case RerankNone, RerankRevenue, RerankRecency:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ResilienceSettings bounds every call to an external provider.
type ResilienceSettings struct {
	// MaxAttempts is the total number of tries for a transient failure.
	MaxAttempts int `validate:"gte=1,lte=10"`

	// InitialBackoffMs is the delay before the first retry.
	InitialBackoffMs int `validate:"gte=0"`

	// MaxBackoffMs caps the exponential delay.
	MaxBackoffMs int `validate:"gte=0"`

	// CallTimeoutSeconds bounds a single provider attempt.
	CallTimeoutSeconds int `validate:"gte=1"`

	// RequestsPerSecond limits embedding calls. Zero disables limiting.
	RequestsPerSecond float64 `validate:"gte=0"`

	// BatchSize is the number of texts per embedding request.
	BatchSize int `validate:"gte=1,lte=2048"`
}

// RetrievalSettings controls the retriever.
type RetrievalSettings struct {
	// TopK is the default number of records passed to the model.
	TopK int `validate:"gte=1,lte=100"`

	// MinSimilarity drops candidates scoring below it.
	MinSimilarity float64 `validate:"gte=-1,lte=1"`

	// OverFetch multiplies TopK when querying the index before filtering.
	OverFetch int `validate:"gte=1,lte=20"`

	// Rerank is the secondary signal for near-tied candidates.
	Rerank RerankSignal
}

// ComposerSettings controls answer generation.
type ComposerSettings struct {
	// Temperature is the sampling temperature sent to the model.
	Temperature float64 `validate:"gte=0,lte=2"`

	// MaxTokens bounds the generated answer.
	MaxTokens int `validate:"gte=1"`

	// MaxContextChars bounds the rendered records in the prompt.
	MaxContextChars int `validate:"gte=200"`

	// MaxAnswerChars rejects longer model output.
	MaxAnswerChars int `validate:"gte=1"`

	// GenerateWithoutContext calls the model even when nothing was retrieved.
	GenerateWithoutContext bool
}

// DataSettings locates input data.
type DataSettings struct {
	// RecordsPath is the processed bookings CSV.
	RecordsPath string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Resilience ResilienceSettings
	Retrieval  RetrievalSettings
	Composer   ComposerSettings
	Data       DataSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; they come from the config file or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Resilience: ResilienceSettings{
			MaxAttempts:        3,
			InitialBackoffMs:   200,
			MaxBackoffMs:       5000,
			CallTimeoutSeconds: 30,
			RequestsPerSecond:  0,
			BatchSize:          64,
		},
		Retrieval: RetrievalSettings{
			TopK:          3,
			MinSimilarity: 0,
			OverFetch:     3,
			Rerank:        RerankNone,
		},
		Composer: ComposerSettings{
			Temperature:     0.1,
			MaxTokens:       512,
			MaxContextChars: 6000,
			MaxAnswerChars:  8000,
		},
		Data: DataSettings{
			RecordsPath: "data/processed/hotel_bookings_processed.csv",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderMistral,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderMistral,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderMistral: "mistral-embed",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderMistral:   "mistral-medium",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// DefaultBaseURLs returns the API endpoint used when none is configured.
func DefaultBaseURLs() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "http://localhost:11434",
		AIProviderOpenAI:    "https://api.openai.com/v1",
		AIProviderMistral:   "https://api.mistral.ai/v1",
		AIProviderAnthropic: "https://api.anthropic.com",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Mistral models
		"mistral-embed": 1024,
	}
}
