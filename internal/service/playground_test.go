package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/llm"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPlayground(providers ...llm.Provider) *PlaygroundService {
	router := llm.NewRouter("")
	for _, p := range providers {
		router.RegisterProvider(p)
	}
	return NewPlaygroundService(router, security.NewValidator())
}

func TestPlaygroundService_Chat(t *testing.T) {
	provider := &MockProvider{name: "gateway", configured: true}
	provider.On("Chat", mock.Anything, llm.Request{Prompt: "Hello", Model: "atlas-llm-pro", Temperature: 0.7}).
		Return(&llm.Response{Content: "Hi there", TokensUsed: 5}, nil)

	temp := 0.0
	provider.On("Chat", mock.Anything, llm.Request{Prompt: "Code", Model: "atlas-llm-code", Temperature: 0}).
		Return(&llm.Response{Content: "func main() {}"}, nil)

	svc := newPlayground(provider)
	ctx := context.Background()

	resp, err := svc.Chat(ctx, "u-1", domain.ChatRequest{Prompt: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", resp.Response)
	assert.Equal(t, "atlas-llm-pro", resp.Model)
	assert.Equal(t, "gateway", resp.Provider)

	resp, err = svc.Chat(ctx, "u-1", domain.ChatRequest{Prompt: "Code", Model: "atlas-llm-code", Temperature: &temp})
	require.NoError(t, err)
	assert.Equal(t, "func main() {}", resp.Response)

	provider.AssertExpectations(t)
}

func TestPlaygroundService_Validation(t *testing.T) {
	svc := newPlayground(&MockProvider{name: "gateway", configured: true})
	ctx := context.Background()
	hot := 1.5

	tests := []struct {
		name    string
		input   domain.ChatRequest
		message string
	}{
		{"empty prompt", domain.ChatRequest{}, "Prompt is required"},
		{"blank prompt", domain.ChatRequest{Prompt: "   "}, "Prompt is required"},
		{"temperature", domain.ChatRequest{Prompt: "Hi", Temperature: &hot}, "Temperature must be at most 1"},
		{"unknown model", domain.ChatRequest{Prompt: "Hi", Model: "gpt-4"}, "Unknown model: gpt-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Chat(ctx, "u-1", tt.input)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.message, verr.Message)
		})
	}

	_, err := svc.Chat(ctx, "u-1", domain.ChatRequest{Prompt: "Hi", Model: "atlas-vision-diffuse"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "does not support chat")
}

func TestPlaygroundService_NotConfigured(t *testing.T) {
	svc := newPlayground(&MockProvider{name: "gateway", configured: false})

	_, err := svc.Chat(context.Background(), "u-1", domain.ChatRequest{Prompt: "Hi"})
	assert.ErrorIs(t, err, ErrPlaygroundNotConfigured)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestPlaygroundService_ProviderFailure(t *testing.T) {
	provider := &MockProvider{name: "gateway", configured: true}
	provider.On("Chat", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := newPlayground(provider).Chat(context.Background(), "u-1", domain.ChatRequest{Prompt: "Hi"})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.NotContains(t, err.Error(), "connection reset")
}
