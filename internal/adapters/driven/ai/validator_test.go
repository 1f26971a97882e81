package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

func TestNewConfigValidator(t *testing.T) {
	validator := NewConfigValidator()
	require.NotNil(t, validator)
	assert.Equal(t, pingTimeout, validator.timeout)
	assert.Equal(t, time.Second, validator.WithTimeout(time.Second).timeout)
}

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateEmbedding(nil), "nothing to validate")
	assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{Model: "m"}))
	assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: okServer(t).URL,
	}))
	assert.ErrorIs(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderAnthropic, APIKey: "k",
	}), domain.ErrUnsupportedType)

	err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: downServer(),
	})
	assert.ErrorIs(t, err, domain.ErrProviderTransient)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "ollama at http://")
}

func TestConfigValidator_ValidateLLM(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateLLM(nil))
	assert.NoError(t, validator.ValidateLLM(&domain.LLMSettings{Provider: "unknown", APIKey: "k"}))
	assert.NoError(t, validator.ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderAnthropic, APIKey: "k", BaseURL: okServer(t).URL,
	}))

	err := validator.ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama, BaseURL: downServer(),
	})
	assert.ErrorIs(t, err, domain.ErrProviderTransient)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestConfigValidator_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	err := NewConfigValidator().WithTimeout(50 * time.Millisecond).ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: server.URL,
	})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
