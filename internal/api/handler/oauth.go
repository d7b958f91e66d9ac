package handler

import (
	"net/http"
	"time"

	"github.com/jinxlo/api-dashboard/internal/api/response"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/jinxlo/api-dashboard/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	stateCookie = "atlas_oauth_state"
	stateTTL    = 10 * time.Minute
	statePath   = "/api/auth/oauth"
)

// OAuthHandler runs the external identity provider sign-in
type OAuthHandler struct {
	provider    *security.OAuthProvider
	authService *service.AuthService
	cookie      CookieConfig
}

// NewOAuthHandler creates a new OAuth handler. provider may be nil when not configured.
func NewOAuthHandler(provider *security.OAuthProvider, authService *service.AuthService, cookie CookieConfig) *OAuthHandler {
	return &OAuthHandler{provider: provider, authService: authService, cookie: cookie}
}

// Login redirects to the provider's consent page
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		response.ServiceUnavailable(w, "External sign-in is not configured")
		return
	}

	state, err := security.NewState()
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     statePath,
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the flow and signs the user in
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		response.ServiceUnavailable(w, "External sign-in is not configured")
		return
	}

	cookie, err := r.Cookie(stateCookie)
	query := r.URL.Query()
	if err != nil || cookie.Value == "" || cookie.Value != query.Get("state") {
		response.BadRequest(w, "Invalid sign-in state")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: statePath, MaxAge: -1, HttpOnly: true, Secure: h.cookie.Secure})

	if reason := query.Get("error"); reason != "" {
		log.Info().Str("provider", h.provider.Name()).Str("error", reason).Msg("External sign-in declined")
		response.BadRequest(w, "Sign-in was cancelled")
		return
	}

	code := query.Get("code")
	if code == "" {
		response.BadRequest(w, "Missing authorization code")
		return
	}

	identity, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("provider", h.provider.Name()).Msg("External sign-in failed")
		response.Error(w, http.StatusBadGateway, "Unable to complete sign-in")
		return
	}

	token, err := h.authService.SignInExternal(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.cookie.set(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}
