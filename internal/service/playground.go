package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jinxlo/api-dashboard/internal/catalog"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/llm"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/rs/zerolog/log"
)

const (
	DefaultChatModel       = "atlas-llm-pro"
	DefaultChatTemperature = 0.7
)

// ErrPlaygroundNotConfigured is returned when no model provider is available
var ErrPlaygroundNotConfigured = &domain.NotConfiguredError{Message: "Playground is not configured"}

// PlaygroundService forwards chat prompts to the configured model provider
type PlaygroundService struct {
	router    *llm.Router
	validator *security.Validator
}

// NewPlaygroundService creates a new playground service
func NewPlaygroundService(router *llm.Router, validator *security.Validator) *PlaygroundService {
	return &PlaygroundService{router: router, validator: validator}
}

// Chat validates the request and returns the model's reply
func (s *PlaygroundService) Chat(ctx context.Context, userID string, input domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, domain.NewValidationError("Prompt is required")
	}

	modelID := strings.TrimSpace(input.Model)
	if modelID == "" {
		modelID = DefaultChatModel
	}
	model, ok := catalog.ByID(modelID)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("Unknown model: %s", modelID))
	}
	if model.Category != catalog.CategoryLanguage {
		return nil, domain.NewValidationError(fmt.Sprintf("%s does not support chat", model.Name))
	}

	temperature := DefaultChatTemperature
	if input.Temperature != nil {
		temperature = *input.Temperature
	}

	provider, err := s.router.GetProvider("")
	if err != nil {
		if errors.Is(err, llm.ErrNoProvider) {
			return nil, ErrPlaygroundNotConfigured
		}
		return nil, err
	}

	resp, err := provider.Chat(ctx, llm.Request{
		Prompt:      input.Prompt,
		Model:       model.ID,
		Temperature: temperature,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("provider", provider.Name()).Msg("Playground request failed")
		return nil, fmt.Errorf("%s: %w", provider.Name(), domain.ErrUpstream)
	}

	return &domain.ChatResponse{
		Response:   resp.Content,
		Model:      model.ID,
		Provider:   provider.Name(),
		TokensUsed: resp.TokensUsed,
		LatencyMs:  resp.LatencyMs,
	}, nil
}
