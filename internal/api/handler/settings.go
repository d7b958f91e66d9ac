package handler

import (
	"errors"
	"net/http"

	"github.com/jinxlo/api-dashboard/internal/api/middleware"
	"github.com/jinxlo/api-dashboard/internal/api/response"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/service"
)

// SettingsHandler handles account settings
type SettingsHandler struct {
	authService *service.AuthService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(authService *service.AuthService) *SettingsHandler {
	return &SettingsHandler{authService: authService}
}

// UpdateProfile changes the caller's name and email
func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var input domain.ProfileUpdate
	if err := decode(w, r, &input); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, input)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		response.Conflict(w, "Email is already in use")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, map[string]any{"user": user})
}

// ChangePassword replaces the caller's password
func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var input domain.PasswordChange
	if err := decode(w, r, &input); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID, input); err != nil {
		writeError(w, r, err)
		return
	}

	response.Text(w, "Password updated")
}
