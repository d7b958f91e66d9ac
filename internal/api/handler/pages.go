package handler

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/jinxlo/api-dashboard/internal/api/middleware"
	"github.com/jinxlo/api-dashboard/internal/catalog"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/jinxlo/api-dashboard/internal/service"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"mask": security.MaskKey,
	"modelNames": func(models []domain.ModelRef) string {
		names := make([]string, len(models))
		for i, m := range models {
			names[i] = m.Name
		}
		return strings.Join(names, ", ")
	},
}).ParseFS(templateFS, "templates/*.html"))

// PageHandler renders the console shell pages
type PageHandler struct {
	keyService *service.KeyService
	oauth      bool
}

// NewPageHandler creates a new page handler
func NewPageHandler(keyService *service.KeyService, oauthEnabled bool) *PageHandler {
	return &PageHandler{keyService: keyService, oauth: oauthEnabled}
}

type pageData struct {
	Title       string
	Session     *domain.Session
	CallbackURL string
	OAuth       bool
	Keys        []domain.KeyView
	Models      []catalog.Model
	Error       string
}

// SignIn renders the sign-in form
func (h *PageHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	callback := r.URL.Query().Get("callbackUrl")
	if !strings.HasPrefix(callback, "/") || strings.HasPrefix(callback, "//") {
		callback = "/dashboard"
	}

	h.render(w, "signin.html", pageData{Title: "Sign in", CallbackURL: callback, OAuth: h.oauth})
}

// Dashboard renders the overview page
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, "dashboard.html", h.data(r, "Dashboard"))
}

// Keys renders the caller's keys with masked secrets
func (h *PageHandler) Keys(w http.ResponseWriter, r *http.Request) {
	data := h.data(r, "API keys")

	keys, err := h.keyService.List(r.Context(), data.Session.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", data.Session.UserID).Msg("Failed to list keys for page")
		data.Error = "Keys are unavailable right now."
	}
	data.Keys = keys
	data.Models = catalog.All()

	h.render(w, "keys.html", data)
}

// Playground renders the prompt page
func (h *PageHandler) Playground(w http.ResponseWriter, r *http.Request) {
	data := h.data(r, "Playground")
	data.Models = catalog.All()
	h.render(w, "playground.html", data)
}

// Settings renders the account page
func (h *PageHandler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, "settings.html", h.data(r, "Settings"))
}

func (h *PageHandler) data(r *http.Request, title string) pageData {
	session, _ := middleware.GetSession(r.Context())
	return pageData{Title: title, Session: session}
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render page")
	}
}
