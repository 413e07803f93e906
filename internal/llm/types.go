// Package llm provides the language-model clients the agent loop talks
// to. Every provider takes a single text prompt and returns text; tool
// calling is done in-band by the agent's line protocol, not by provider
// function-calling features.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Client is the interface all model providers implement.
type Client interface {
	// Generate sends one prompt and returns the model's text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Provider returns the provider name ("gemini", "openai", "ollama").
	Provider() string

	// Model returns the model identifier requests are sent to.
	Model() string
}

// KeyFunc returns the API key to use for a call. It is consulted on every
// call so a key changed at runtime takes effect immediately.
type KeyFunc func(ctx context.Context) (string, error)

// StaticKey returns a KeyFunc that always yields key.
func StaticKey(key string) KeyFunc {
	return func(context.Context) (string, error) { return key, nil }
}

// Request is a single-prompt generation request.
type Request struct {
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
}

// Response is the provider-neutral generation result.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
}

// APIError is returned when a provider answers with a non-success status.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API error %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: API error %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the failure is likely transient (rate
// limiting or a server-side error).
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
