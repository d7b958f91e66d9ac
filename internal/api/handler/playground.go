package handler

import (
	"errors"
	"net/http"

	"github.com/jinxlo/api-dashboard/internal/api/middleware"
	"github.com/jinxlo/api-dashboard/internal/api/response"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	playgroundNotConfigured = "The platform administrator must configure the Kong gateway credentials before the playground can be used."
	playgroundUnreachable   = "We were unable to reach the language model. Please try again or verify your configuration."
)

// PlaygroundHandler forwards prompts to the language model
type PlaygroundHandler struct {
	playground *service.PlaygroundService
}

// NewPlaygroundHandler creates a new playground handler
func NewPlaygroundHandler(playground *service.PlaygroundService) *PlaygroundHandler {
	return &PlaygroundHandler{playground: playground}
}

// Chat sends a prompt and returns the model's reply
func (h *PlaygroundHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var input domain.ChatRequest
	if err := decode(w, r, &input); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	reply, err := h.playground.Chat(r.Context(), userID, input)
	var validation *domain.ValidationError
	switch {
	case err == nil:
		response.OK(w, reply)
	case errors.As(err, &validation):
		response.BadRequest(w, validation.Message)
	case errors.Is(err, domain.ErrNotConfigured):
		response.OK(w, domain.ChatResponse{
			Message:  "Playground is not configured",
			Response: playgroundNotConfigured,
		})
	case errors.Is(err, domain.ErrUpstream):
		log.Error().Err(err).Str("user_id", userID).Msg("Playground request failed")
		response.JSON(w, http.StatusBadGateway, domain.ChatResponse{
			Message:  "Playground request failed",
			Response: playgroundUnreachable,
		})
	default:
		writeError(w, r, err)
	}
}
