package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jinxlo/api-dashboard/internal/api/response"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeError translates domain errors into HTTP responses
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	var notConfigured *domain.NotConfiguredError

	switch {
	case errors.As(err, &validation):
		response.BadRequest(w, validation.Message)
	case errors.Is(err, domain.ErrDuplicateEmail):
		response.Conflict(w, "An account with this email already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.BadRequest(w, "Invalid email or password")
	case errors.Is(err, domain.ErrUnauthorized):
		response.Unauthorized(w)
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Not found")
	case errors.As(err, &notConfigured):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Backend not configured")
		response.ServiceUnavailable(w, notConfigured.Message)
	case errors.Is(err, domain.ErrNotConfigured):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Backend not configured")
		response.ServiceUnavailable(w, "This feature is not configured on the server")
	case errors.Is(err, domain.ErrUpstream):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream failure")
		response.ServiceUnavailable(w, "The service is temporarily unavailable. Please try again.")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		response.InternalError(w)
	}
}
