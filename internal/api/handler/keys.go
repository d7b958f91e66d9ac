package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jinxlo/api-dashboard/internal/api/middleware"
	"github.com/jinxlo/api-dashboard/internal/api/response"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/service"
)

// KeyHandler handles API key endpoints
type KeyHandler struct {
	keyService *service.KeyService
}

// NewKeyHandler creates a new key handler
func NewKeyHandler(keyService *service.KeyService) *KeyHandler {
	return &KeyHandler{keyService: keyService}
}

type keyList struct {
	Keys []domain.KeyView `json:"keys"`
}

// List returns the caller's keys
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	keys, err := h.keyService.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, keyList{Keys: keys})
}

// Create issues a new key
func (h *KeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var input domain.KeyCreate
	if err := decode(w, r, &input); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	view, err := h.keyService.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, view)
}

// Delete revokes one of the caller's keys
func (h *KeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	if err := h.keyService.Delete(r.Context(), userID, chi.URLParam(r, "keyID")); err != nil {
		writeError(w, r, err)
		return
	}

	response.Text(w, "API key revoked")
}
