package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShowCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Provider: Ollama (local)")
	assert.Contains(t, out, "Provider: Mistral (cloud)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Top K: 3")
	assert.Contains(t, out, "Rate limit: off")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShowCmd_InvalidWarns(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("embedding provider not configured")

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: embedding provider not configured")
}

func TestSettingsSetCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "set", "retrieval.top_k", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "Set retrieval.top_k = 5")
	assert.Equal(t, map[string]string{"retrieval.top_k": "5"}, ts.settings.set)
}

func TestSettingsSetCmd_RejectsAPIKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "settings", "set", "llm.api_key", "secret")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, ts.settings.set)
}

func TestSettingsSetCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.setErr = fmt.Errorf("%w: unknown key", domain.ErrInvalidInput)

	_, err := execute(t, "settings", "set", "nope", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set nope")
	assert.Equal(t, ExitBadRequest, ExitCode(err))
}

func TestSettingsAPIKeyCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("sk-new-key\n"))

	out, err := execute(t, "settings", "api-key", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "API key saved for llm.")
	assert.Equal(t, domain.AIProviderMistral, ts.settings.settings.LLM.Provider)
	assert.Equal(t, "mistral-medium", ts.settings.settings.LLM.Model)
	assert.Equal(t, "sk-new-key", ts.settings.settings.LLM.APIKey)
}

func TestSettingsAPIKeyCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("\n"))

	_, err := execute(t, "settings", "api-key", "embedding")

	assert.EqualError(t, err, "API key is required")
}

func TestSettingsWizardCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	// Ollama embeddings with the default model, then OpenAI with a key.
	rootCmd.SetIn(strings.NewReader("1\n\n2\ngpt-4o\nsk-openai\n"))

	out, err := execute(t, "settings", "wizard")

	require.NoError(t, err)
	assert.Contains(t, out, "Embedding provider configured: Ollama (local) (nomic-embed-text)")
	assert.Contains(t, out, "LLM provider configured: OpenAI (cloud) (gpt-4o)")
	assert.Contains(t, out, "All settings are valid and saved.")
	assert.Equal(t, domain.LLMSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o", APIKey: "sk-openai"},
		ts.settings.settings.LLM)
}

func TestSettingsLLMCmd_MissingKey(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("4\n\n\n"))

	_, err := execute(t, "settings", "llm")

	assert.EqualError(t, err, "API key is required for this provider")
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	for _, args := range [][]string{
		{"settings", "show"},
		{"settings", "set", "retrieval.top_k", "5"},
		{"settings", "embedding"},
	} {
		_, err := execute(t, args...)
		assert.EqualError(t, err, "settings service not configured", args)
	}
}
