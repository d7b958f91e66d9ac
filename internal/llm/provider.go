package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any content
var ErrEmptyResponse = errors.New("model returned no content")

// Request contains chat completion parameters
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
}

// Response contains the chat completion result
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the model used when a request names none
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Chat sends a single-turn user prompt
	Chat(ctx context.Context, req Request) (*Response, error)
}
