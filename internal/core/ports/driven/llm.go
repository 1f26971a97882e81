// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides language model generation for answer composition.
//
// Failures are wrapped in domain.ErrProviderTransient, domain.ErrProviderRejected
// or domain.ErrMalformedResponse so the composer can decide whether to retry.
//
// Implementations may include:
//   - OpenAI-compatible chat completions (OpenAI, Mistral)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// StreamingLLMService is implemented by providers that can stream tokens.
type StreamingLLMService interface {
	LLMService

	// GenerateStream produces a completion, calling onDelta for each text fragment
	// as it arrives. It returns the full concatenated text.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, onDelta func(string)) (string, error)
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// System is an optional system instruction sent before the prompt.
	System string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopP is nucleus sampling probability mass. Zero leaves the provider default.
	TopP float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopP is nucleus sampling probability mass. Zero leaves the provider default.
	TopP float64
}
