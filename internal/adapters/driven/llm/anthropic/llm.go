// Package anthropic generates answers with the Anthropic Messages API.
// Anthropic offers no embeddings, so it can only fill the LLM role.
package anthropic

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

var _ driven.StreamingLLMService = (*LLMService)(nil)

// Defaults applied by NewLLMService.
const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-haiku-latest"
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens is sent when the caller sets no limit; the API requires one.
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
)

// Config configures an LLMService. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls POST /v1/messages.
type LLMService struct {
	http    *providerhttp.Client
	baseURL string
	model   string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stop        []string  `json:"stop_sequences,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// streamEvent covers the data payloads of the event types read while streaming.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewLLMService validates cfg and fills in defaults.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w: API key is required", domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", anthropicVersion)

	return &LLMService{
		http:    providerhttp.New("anthropic", &http.Client{Timeout: cfg.Timeout}, header),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}, nil
}

func (s *LLMService) messagesURL() string {
	return providerhttp.JoinURL(s.baseURL, "/v1/messages")
}

func (s *LLMService) request(system string, msgs []message, maxTokens int, temperature, topP float64, stop []string) messagesRequest {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return messagesRequest{
		Model:       s.model,
		System:      system,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		TopP:        topP,
		Stop:        stop,
	}
}

func (s *LLMService) generateRequest(prompt string, opts driven.GenerateOptions) messagesRequest {
	msgs := []message{{Role: "user", Content: prompt}}
	return s.request(opts.System, msgs, opts.MaxTokens, opts.Temperature, opts.TopP, opts.StopWords)
}

// Generate answers a single user prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.send(ctx, s.generateRequest(prompt, opts))
}

// Chat sends a conversation. System messages are joined into the top-level
// system field since the API rejects them as turns.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var system []string
	msgs := make([]message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		msgs = append(msgs, message{Role: m.Role, Content: m.Content})
	}
	req := s.request(strings.Join(system, "\n\n"), msgs, opts.MaxTokens, opts.Temperature, opts.TopP, nil)
	return s.send(ctx, req)
}

func (s *LLMService) send(ctx context.Context, req messagesRequest) (string, error) {
	var resp messagesResponse
	if err := s.http.DoJSON(ctx, http.MethodPost, s.messagesURL(), req, &resp); err != nil {
		return "", err
	}
	if resp.StopReason == "refusal" {
		return "", s.refused()
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", s.http.Malformed("no text content returned")
	}
	return out.String(), nil
}

// GenerateStream streams text_delta fragments until message_stop.
func (s *LLMService) GenerateStream(
	ctx context.Context,
	prompt string,
	opts driven.GenerateOptions,
	onDelta func(string),
) (string, error) {
	req := s.generateRequest(prompt, opts)
	req.Stream = true

	resp, err := s.http.Open(ctx, http.MethodPost, s.messagesURL(), req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &ev); err != nil {
			return out.String(), s.http.Malformed("decode stream event: %v", err)
		}
		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Type != "text_delta" || ev.Delta.Text == "" {
				continue
			}
			out.WriteString(ev.Delta.Text)
			if onDelta != nil {
				onDelta(ev.Delta.Text)
			}
		case "message_delta":
			if ev.Delta.StopReason == "refusal" {
				return out.String(), s.refused()
			}
		case "error":
			msg := "stream error"
			if ev.Error != nil {
				msg = ev.Error.Type + ": " + ev.Error.Message
			}
			return out.String(), fmt.Errorf("anthropic: %w: %s", domain.ErrProviderTransient, msg)
		case "message_stop":
			return out.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return out.String(), s.http.TransportError(ctx, err)
	}
	return out.String(), s.http.Malformed("stream ended without message_stop")
}

func (s *LLMService) refused() error {
	return fmt.Errorf("anthropic: %w: model refused", domain.ErrProviderRejected)
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without generating.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.http.DoJSON(ctx, http.MethodGet, providerhttp.JoinURL(s.baseURL, "/v1/models"), nil, nil)
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}
