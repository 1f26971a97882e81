// Package ollama provides an LLM service adapter using Ollama.
package ollama

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
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using Ollama.
type LLMService struct {
	http    *providerhttp.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	System  string   `json:"system,omitempty"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// generateResponse is one /api/generate response object. Streaming sends
// one per line.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		http:    providerhttp.New("ollama", &http.Client{Timeout: cfg.Timeout}, nil),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var resp generateResponse
	url := providerhttp.JoinURL(s.baseURL, "/api/generate")
	if err := s.http.DoJSON(ctx, http.MethodPost, url, s.generateRequest(prompt, opts, false), &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %w: %s", domain.ErrProviderRejected, resp.Error)
	}
	return resp.Response, nil
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	msgs := make([]chatMessage, len(messages))
	for i, m := range messages {
		msgs[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	req := chatRequest{
		Model:    s.model,
		Messages: msgs,
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
		},
	}

	var resp chatResponse
	if err := s.http.DoJSON(ctx, http.MethodPost, providerhttp.JoinURL(s.baseURL, "/api/chat"), req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// GenerateStream streams a completion as newline-delimited JSON objects.
func (s *LLMService) GenerateStream(
	ctx context.Context,
	prompt string,
	opts driven.GenerateOptions,
	onDelta func(string),
) (string, error) {
	url := providerhttp.JoinURL(s.baseURL, "/api/generate")
	resp, err := s.http.Open(ctx, http.MethodPost, url, s.generateRequest(prompt, opts, true))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return out.String(), s.http.Malformed("decode stream line: %v", err)
		}
		if chunk.Error != "" {
			return out.String(), fmt.Errorf("ollama: %w: %s", domain.ErrProviderTransient, chunk.Error)
		}
		if chunk.Response != "" {
			out.WriteString(chunk.Response)
			if onDelta != nil {
				onDelta(chunk.Response)
			}
		}
		if chunk.Done {
			return out.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return out.String(), s.http.TransportError(ctx, err)
	}
	return out.String(), s.http.Malformed("stream ended before done")
}

func (s *LLMService) generateRequest(prompt string, opts driven.GenerateOptions, stream bool) generateRequest {
	return generateRequest{
		Model:  s.model,
		Prompt: prompt,
		System: opts.System,
		Stream: stream,
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			Stop:        opts.StopWords,
		},
	}
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates Ollama is reachable by checking the /api/tags endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.http.DoJSON(ctx, http.MethodGet, providerhttp.JoinURL(s.baseURL, "/api/tags"), nil, nil)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
