package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"

	keyMaxAttempts    = "resilience.max_attempts"
	keyInitialBackoff = "resilience.initial_backoff_ms"
	keyMaxBackoff     = "resilience.max_backoff_ms"
	keyCallTimeout    = "resilience.call_timeout_seconds"
	keyRequestsPerSec = "resilience.requests_per_second"
	keyBatchSize      = "resilience.batch_size"

	keyTopK          = "retrieval.top_k"
	keyMinSimilarity = "retrieval.min_similarity"
	keyOverFetch     = "retrieval.over_fetch"
	keyRerank        = "retrieval.rerank"

	keyTemperature     = "composer.temperature"
	keyMaxTokens       = "composer.max_tokens"
	keyMaxContextChars = "composer.max_context_chars"
	keyMaxAnswerChars  = "composer.max_answer_chars"
	keyGenerateNoCtx   = "composer.generate_without_context"

	keyRecordsPath = "data.records_path"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvEmbeddingAPIKey = "HOTELRAG_EMBEDDING_API_KEY"
	EnvLLMAPIKey       = "HOTELRAG_LLM_API_KEY"
	EnvRecordsPath     = "HOTELRAG_RECORDS_PATH"
	EnvMistralAPIKey   = "MISTRAL_API_KEY"
	EnvMistralAPIURL   = "MISTRAL_API_URL"
	EnvMistralModel    = "MISTRAL_MODEL_NAME"
)

// settingKind is the type a setting is parsed into.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
)

// settingKinds lists every key accepted by Set.
var settingKinds = map[string]settingKind{
	keyEmbedProvider:   kindString,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyLLMProvider:     kindString,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindString,
	keyMaxAttempts:     kindInt,
	keyInitialBackoff:  kindInt,
	keyMaxBackoff:      kindInt,
	keyCallTimeout:     kindInt,
	keyRequestsPerSec:  kindFloat,
	keyBatchSize:       kindInt,
	keyTopK:            kindInt,
	keyMinSimilarity:   kindFloat,
	keyOverFetch:       kindInt,
	keyRerank:          kindString,
	keyTemperature:     kindFloat,
	keyMaxTokens:       kindInt,
	keyMaxContextChars: kindInt,
	keyMaxAnswerChars:  kindInt,
	keyGenerateNoCtx:   kindBool,
	keyRecordsPath:     kindString,
}

// SettingKeys returns every key accepted by Set, sorted by section.
func SettingKeys() []string {
	return []string{
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
		keyMaxAttempts, keyInitialBackoff, keyMaxBackoff, keyCallTimeout, keyRequestsPerSec, keyBatchSize,
		keyTopK, keyMinSimilarity, keyOverFetch, keyRerank,
		keyTemperature, keyMaxTokens, keyMaxContextChars, keyMaxAnswerChars, keyGenerateNoCtx,
		keyRecordsPath,
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup. Used by tests.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	s.lookupEnv = lookup
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	s.applyEnv(settings)
	return settings, nil
}

// stored reads settings from the config store only.
func (s *SettingsService) stored() *domain.AppSettings {
	d := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Resilience: domain.ResilienceSettings{
			MaxAttempts:        s.getInt(keyMaxAttempts, d.Resilience.MaxAttempts),
			InitialBackoffMs:   s.getInt(keyInitialBackoff, d.Resilience.InitialBackoffMs),
			MaxBackoffMs:       s.getInt(keyMaxBackoff, d.Resilience.MaxBackoffMs),
			CallTimeoutSeconds: s.getInt(keyCallTimeout, d.Resilience.CallTimeoutSeconds),
			RequestsPerSecond:  s.getFloat(keyRequestsPerSec, d.Resilience.RequestsPerSecond),
			BatchSize:          s.getInt(keyBatchSize, d.Resilience.BatchSize),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:          s.getInt(keyTopK, d.Retrieval.TopK),
			MinSimilarity: s.getFloat(keyMinSimilarity, d.Retrieval.MinSimilarity),
			OverFetch:     s.getInt(keyOverFetch, d.Retrieval.OverFetch),
			Rerank:        s.getRerank(d.Retrieval.Rerank),
		},
		Composer: domain.ComposerSettings{
			Temperature:            s.getFloat(keyTemperature, d.Composer.Temperature),
			MaxTokens:              s.getInt(keyMaxTokens, d.Composer.MaxTokens),
			MaxContextChars:        s.getInt(keyMaxContextChars, d.Composer.MaxContextChars),
			MaxAnswerChars:         s.getInt(keyMaxAnswerChars, d.Composer.MaxAnswerChars),
			GenerateWithoutContext: s.getBool(keyGenerateNoCtx, d.Composer.GenerateWithoutContext),
		},
		Data: domain.DataSettings{
			RecordsPath: s.getString(keyRecordsPath, d.Data.RecordsPath),
		},
	}
}

// applyEnv overlays environment variables onto settings.
// MISTRAL_API_KEY selects Mistral for any provider left unset.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v, ok := s.env(EnvEmbeddingAPIKey); ok {
		settings.Embedding.APIKey = v
	}
	if v, ok := s.env(EnvLLMAPIKey); ok {
		settings.LLM.APIKey = v
	}
	if v, ok := s.env(EnvRecordsPath); ok {
		settings.Data.RecordsPath = v
	}

	mistralKey, hasKey := s.env(EnvMistralAPIKey)
	mistralURL, hasURL := s.env(EnvMistralAPIURL)
	if hasURL {
		mistralURL = strings.TrimSuffix(strings.TrimSuffix(mistralURL, "/"), "/chat/completions")
	}
	mistralModel, hasModel := s.env(EnvMistralModel)

	if hasKey && settings.Embedding.Provider == "" {
		settings.Embedding.Provider = domain.AIProviderMistral
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[domain.AIProviderMistral]
	}
	if settings.Embedding.Provider == domain.AIProviderMistral {
		if hasKey && settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = mistralKey
		}
		if hasURL {
			settings.Embedding.BaseURL = mistralURL
		}
	}

	if hasKey && settings.LLM.Provider == "" {
		settings.LLM.Provider = domain.AIProviderMistral
		settings.LLM.Model = domain.DefaultLLMModels()[domain.AIProviderMistral]
	}
	if settings.LLM.Provider == domain.AIProviderMistral {
		if hasKey && settings.LLM.APIKey == "" {
			settings.LLM.APIKey = mistralKey
		}
		if hasURL {
			settings.LLM.BaseURL = mistralURL
		}
		if hasModel {
			settings.LLM.Model = mistralModel
		}
	}
}

func (s *SettingsService) env(key string) (string, bool) {
	v, ok := s.lookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyMaxAttempts, settings.Resilience.MaxAttempts},
		{keyInitialBackoff, settings.Resilience.InitialBackoffMs},
		{keyMaxBackoff, settings.Resilience.MaxBackoffMs},
		{keyCallTimeout, settings.Resilience.CallTimeoutSeconds},
		{keyRequestsPerSec, settings.Resilience.RequestsPerSecond},
		{keyBatchSize, settings.Resilience.BatchSize},
		{keyTopK, settings.Retrieval.TopK},
		{keyMinSimilarity, settings.Retrieval.MinSimilarity},
		{keyOverFetch, settings.Retrieval.OverFetch},
		{keyRerank, string(settings.Retrieval.Rerank)},
		{keyTemperature, settings.Composer.Temperature},
		{keyMaxTokens, settings.Composer.MaxTokens},
		{keyMaxContextChars, settings.Composer.MaxContextChars},
		{keyMaxAnswerChars, settings.Composer.MaxAnswerChars},
		{keyGenerateNoCtx, settings.Composer.GenerateWithoutContext},
		{keyRecordsPath, settings.Data.RecordsPath},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys are only written when present so an empty value never clears a stored key.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// Set updates a single setting by dotted key. The value is parsed according
// to the key's type and the resulting settings are validated before storing.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	settings := s.stored()
	if err := applySetting(settings, key, parsed); err != nil {
		return err
	}
	if err := s.check(settings); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(kind settingKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}

//nolint:gocyclo // one case per key
func applySetting(settings *domain.AppSettings, key string, v any) error {
	switch key {
	case keyEmbedProvider:
		settings.Embedding.Provider = domain.AIProvider(v.(string))
	case keyEmbedModel:
		settings.Embedding.Model = v.(string)
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = v.(string)
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = v.(string)
	case keyLLMProvider:
		settings.LLM.Provider = domain.AIProvider(v.(string))
	case keyLLMModel:
		settings.LLM.Model = v.(string)
	case keyLLMBaseURL:
		settings.LLM.BaseURL = v.(string)
	case keyLLMAPIKey:
		settings.LLM.APIKey = v.(string)
	case keyMaxAttempts:
		settings.Resilience.MaxAttempts = v.(int)
	case keyInitialBackoff:
		settings.Resilience.InitialBackoffMs = v.(int)
	case keyMaxBackoff:
		settings.Resilience.MaxBackoffMs = v.(int)
	case keyCallTimeout:
		settings.Resilience.CallTimeoutSeconds = v.(int)
	case keyRequestsPerSec:
		settings.Resilience.RequestsPerSecond = v.(float64)
	case keyBatchSize:
		settings.Resilience.BatchSize = v.(int)
	case keyTopK:
		settings.Retrieval.TopK = v.(int)
	case keyMinSimilarity:
		settings.Retrieval.MinSimilarity = v.(float64)
	case keyOverFetch:
		settings.Retrieval.OverFetch = v.(int)
	case keyRerank:
		settings.Retrieval.Rerank = domain.RerankSignal(v.(string))
	case keyTemperature:
		settings.Composer.Temperature = v.(float64)
	case keyMaxTokens:
		settings.Composer.MaxTokens = v.(int)
	case keyMaxContextChars:
		settings.Composer.MaxContextChars = v.(int)
	case keyMaxAnswerChars:
		settings.Composer.MaxAnswerChars = v.(int)
	case keyGenerateNoCtx:
		settings.Composer.GenerateWithoutContext = v.(bool)
	case keyRecordsPath:
		settings.Data.RecordsPath = v.(string)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return nil
}

// check validates ranges and enumerations without requiring providers.
func (s *SettingsService) check(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s failed %s=%s (got %v)",
				domain.ErrInvalidInput, fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if p := settings.Embedding.Provider; p != "" && !p.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, p)
	}
	if p := settings.Embedding.Provider; p != "" && !supportsEmbeddings(p) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, p)
	}
	if p := settings.LLM.Provider; p != "" && !p.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, p)
	}
	if !settings.Retrieval.Rerank.IsValid() {
		return fmt.Errorf("%w: invalid rerank signal: %s", domain.ErrInvalidInput, settings.Retrieval.Rerank)
	}
	if settings.Resilience.MaxBackoffMs > 0 && settings.Resilience.MaxBackoffMs < settings.Resilience.InitialBackoffMs {
		return fmt.Errorf("%w: max_backoff_ms must not be below initial_backoff_ms", domain.ErrInvalidInput)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	if !supportsEmbeddings(provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.Embedding.Provider = provider

	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = domain.DefaultBaseURLs()[provider]
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

func supportsEmbeddings(provider domain.AIProvider) bool {
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			return true
		}
	}
	return false
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = domain.DefaultBaseURLs()[provider]
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that settings are in range and both providers are configured.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := s.check(settings); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider is required to build and query the index", domain.ErrNotConfigured)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider is required to answer questions", domain.ErrNotConfigured)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getRerank(defaultVal domain.RerankSignal) domain.RerankSignal {
	val := s.configStore.GetString(keyRerank)
	if val == "" {
		return defaultVal
	}
	signal := domain.RerankSignal(val)
	if !signal.IsValid() {
		return defaultVal
	}
	return signal
}
