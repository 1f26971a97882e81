// Package providerhttp holds the request plumbing shared by the embedding
// and LLM adapters: JSON requests, status classification and body checks.
//
// Every error returned here wraps one of domain.ErrProviderTransient,
// domain.ErrProviderRejected or domain.ErrMalformedResponse so the core
// services can decide whether a retry is worthwhile.
package providerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4 << 10

// Client sends JSON requests to a provider API.
type Client struct {
	// Name prefixes every error, e.g. "openai".
	Name string

	// HTTP is the underlying client.
	HTTP *http.Client

	// Header is applied to every request (auth, API version).
	Header http.Header
}

// New creates a client with the given name and timeout-bearing HTTP client.
func New(name string, httpClient *http.Client, header http.Header) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if header == nil {
		header = http.Header{}
	}
	return &Client{Name: name, HTTP: httpClient, Header: header}
}

// DoJSON posts body as JSON (or sends a bodiless request when body is nil)
// and decodes a 2xx response into out. out may be nil.
func (c *Client) DoJSON(ctx context.Context, method, url string, body, out any) error {
	resp, err := c.Open(ctx, method, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.Malformed("decode response: %v", err)
	}
	return nil
}

// Open sends the request and returns the response when its status is 2xx.
// The caller owns the body. Non-2xx responses are classified and closed.
func (c *Client) Open(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", c.Name, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.Name, err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, c.TransportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, c.StatusError(resp.StatusCode, raw)
	}
	return resp, nil
}

// StatusError classifies a non-2xx response.
// 408, 429 and 5xx are transient; every other status is a rejection.
func (c *Client) StatusError(status int, body []byte) error {
	kind := domain.ErrProviderRejected
	if IsTransientStatus(status) {
		kind = domain.ErrProviderTransient
	}
	msg := ErrorMessage(body)
	if msg == "" {
		return fmt.Errorf("%s: %w: status %d", c.Name, kind, status)
	}
	return fmt.Errorf("%s: %w: status %d: %s", c.Name, kind, status, msg)
}

// TransportError wraps a failure to reach the provider as transient.
// Cancellation by the caller is passed through unclassified.
func (c *Client) TransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
		return fmt.Errorf("%s: %w", c.Name, ctxErr)
	}
	return fmt.Errorf("%s: %w: %w", c.Name, domain.ErrProviderTransient, err)
}

// Malformed reports a response body that could not be understood.
func (c *Client) Malformed(format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", c.Name, domain.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// IsTransientStatus reports whether a status code is worth retrying.
func IsTransientStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}

// ErrorMessage extracts a human-readable message from an error body.
// It understands {"error": "..."}, {"error": {"message": "..."}} and
// {"message": "..."}, falling back to the trimmed body.
func ErrorMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Error) > 0 {
			var s string
			if json.Unmarshal(envelope.Error, &s) == nil && s != "" {
				return s
			}
			var obj struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(envelope.Error, &obj) == nil && obj.Message != "" {
				return obj.Message
			}
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// Float32s converts a JSON float64 vector and rejects empty or all-zero results.
func (c *Client) Float32s(v []float64) ([]float32, error) {
	if len(v) == 0 {
		return nil, c.Malformed("empty embedding")
	}
	out := make([]float32, len(v))
	zero := true
	for i, f := range v {
		out[i] = float32(f)
		if f != 0 {
			zero = false
		}
	}
	if zero {
		return nil, c.Malformed("zero embedding")
	}
	return out, nil
}

// JoinURL appends path to base, dropping a trailing slash on base.
func JoinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}
