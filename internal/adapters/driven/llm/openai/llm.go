// Package openai provides an LLM service adapter for OpenAI-compatible chat
// completion APIs, including Mistral.
package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/hotelrag/internal/adapters/driven/providerhttp"
	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

// Ensure LLMService implements the interfaces.
var (
	_ driven.LLMService          = (*LLMService)(nil)
	_ driven.StreamingLLMService = (*LLMService)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// Name labels errors (default: openai). Use "mistral" for Mistral.
	Name string

	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Mistral, Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using an OpenAI-compatible API.
type LLMService struct {
	http    *providerhttp.Client
	baseURL string
	model   string
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
	TopP        float64             `json:"top_p,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
	Stream      bool                `json:"stream,omitempty"`
}

// chatCompletionMsg is a single chat message.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// chatCompletionChunk is one server-sent event of a streamed completion.
type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w: API key is required", cfg.Name, domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)

	return &LLMService{
		http:    providerhttp.New(cfg.Name, &http.Client{Timeout: cfg.Timeout}, header),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var resp chatCompletionResponse
	if err := s.http.DoJSON(ctx, http.MethodPost, s.completionsURL(), s.request(prompt, opts, false), &resp); err != nil {
		return "", err
	}
	return s.firstChoice(resp)
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	msgs := make([]chatCompletionMsg, len(messages))
	for i, m := range messages {
		msgs[i] = chatCompletionMsg{Role: m.Role, Content: m.Content}
	}
	req := chatCompletionRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	}

	var resp chatCompletionResponse
	if err := s.http.DoJSON(ctx, http.MethodPost, s.completionsURL(), req, &resp); err != nil {
		return "", err
	}
	return s.firstChoice(resp)
}

// GenerateStream streams a completion over server-sent events.
func (s *LLMService) GenerateStream(
	ctx context.Context,
	prompt string,
	opts driven.GenerateOptions,
	onDelta func(string),
) (string, error) {
	resp, err := s.http.Open(ctx, http.MethodPost, s.completionsURL(), s.request(prompt, opts, true))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	done := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			done = true
			break
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return out.String(), s.http.Malformed("decode stream chunk: %v", err)
		}
		if chunk.Error != nil {
			return out.String(), fmt.Errorf("%s: %w: %s", s.http.Name, domain.ErrProviderTransient, chunk.Error.Message)
		}
		for _, c := range chunk.Choices {
			if c.Delta.Content == "" {
				continue
			}
			out.WriteString(c.Delta.Content)
			if onDelta != nil {
				onDelta(c.Delta.Content)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return out.String(), s.http.TransportError(ctx, err)
	}
	if !done {
		return out.String(), s.http.Malformed("stream ended without [DONE]")
	}
	return out.String(), nil
}

func (s *LLMService) request(prompt string, opts driven.GenerateOptions, stream bool) chatCompletionRequest {
	var msgs []chatCompletionMsg
	if opts.System != "" {
		msgs = append(msgs, chatCompletionMsg{Role: "system", Content: opts.System})
	}
	msgs = append(msgs, chatCompletionMsg{Role: "user", Content: prompt})

	return chatCompletionRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Stop:        opts.StopWords,
		Stream:      stream,
	}
}

func (s *LLMService) firstChoice(resp chatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", s.http.Malformed("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *LLMService) completionsURL() string {
	return providerhttp.JoinURL(s.baseURL, "/chat/completions")
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.http.DoJSON(ctx, http.MethodGet, providerhttp.JoinURL(s.baseURL, "/models"), nil, nil)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
