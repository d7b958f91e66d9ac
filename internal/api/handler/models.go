package handler

import (
	"net/http"

	"github.com/jinxlo/api-dashboard/internal/api/response"
	"github.com/jinxlo/api-dashboard/internal/catalog"
)

// ListModels returns the model catalog
func ListModels(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]any{
		"models": catalog.All(),
	})
}
