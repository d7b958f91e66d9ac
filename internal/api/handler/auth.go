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

// AuthHandler handles registration and session endpoints
type AuthHandler struct {
	authService *service.AuthService
	cookie      CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := decode(w, r, &input); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if _, err := h.authService.Register(r.Context(), input); err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.Message{Message: "Account created"})
}

// SignIn exchanges credentials for a session
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := decode(w, r, &input); err != nil {
		writeError(w, r, domain.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.SignIn(r.Context(), input.Email, input.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.cookie.set(w, token)
	response.OK(w, token)
}

// Session re-reads the signed-in account and issues a fresh token
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	token, err := h.authService.Refresh(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info().Str("user_id", userID).Msg("Session refers to a missing account; signing out")
		h.cookie.clear(w)
		response.Unauthorized(w)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.cookie.set(w, token)
	response.OK(w, token)
}

// SignOut clears the session cookie and revokes the token when possible
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if session, ok := middleware.GetSession(r.Context()); ok {
		if err := h.authService.SignOut(r.Context(), session); err != nil {
			log.Warn().Err(err).Str("user_id", session.UserID).Msg("Failed to revoke session")
		}
	}

	h.cookie.clear(w)
	response.Text(w, "Signed out")
}
