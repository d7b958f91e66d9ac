package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jinxlo/api-dashboard/internal/api/handler"
	customMiddleware "github.com/jinxlo/api-dashboard/internal/api/middleware"
	"github.com/jinxlo/api-dashboard/internal/config"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/jinxlo/api-dashboard/internal/service"
)

// Deps carries the wired collaborators the router needs
type Deps struct {
	Auth       *service.AuthService
	Keys       *service.KeyService
	Playground *service.PlaygroundService
	Sessions   *security.SessionManager
	OAuth      *security.OAuthProvider

	// Revocations is nil when Redis is not configured
	Revocations customMiddleware.RevocationChecker

	// APILimiter and SignInLimiter are nil when Redis is not configured
	APILimiter    customMiddleware.Limiter
	SignInLimiter customMiddleware.Limiter

	// Metrics is nil when metrics are disabled
	Metrics *customMiddleware.Metrics

	// Ready lists the dependencies probed by /api/ready
	Ready map[string]handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	if cfg.Server.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument)
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	cookie := handler.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	authn := customMiddleware.NewAuthenticator(deps.Sessions, cfg.Auth.CookieName, deps.Revocations)

	authHandler := handler.NewAuthHandler(deps.Auth, cookie)
	oauthHandler := handler.NewOAuthHandler(deps.OAuth, deps.Auth, cookie)
	keyHandler := handler.NewKeyHandler(deps.Keys)
	settingsHandler := handler.NewSettingsHandler(deps.Auth)
	playgroundHandler := handler.NewPlaygroundHandler(deps.Playground)
	pageHandler := handler.NewPageHandler(deps.Keys, deps.OAuth != nil)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Ready))
		r.Get("/models", handler.ListModels)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)

			r.Group(func(r chi.Router) {
				if deps.SignInLimiter != nil {
					r.Use(customMiddleware.NewRateLimitMiddleware(deps.SignInLimiter, customMiddleware.ByIP).Limit)
				}
				r.Post("/session", authHandler.SignIn)
			})

			r.With(authn.RequireAPI).Get("/session", authHandler.Session)
			r.With(authn.Optional).Delete("/session", authHandler.SignOut)

			r.Get("/oauth/login", oauthHandler.Login)
			r.Get("/oauth/callback", oauthHandler.Callback)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAPI)
			if deps.APILimiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.APILimiter, customMiddleware.ByUser).Limit)
			}

			r.Route("/keys", func(r chi.Router) {
				r.Get("/", keyHandler.List)
				r.Post("/", keyHandler.Create)
				r.Delete("/{keyID}", keyHandler.Delete)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Patch("/profile", settingsHandler.UpdateProfile)
				r.Patch("/password", settingsHandler.ChangePassword)
			})

			r.Post("/playground/chat", playgroundHandler.Chat)
		})
	})

	// Console pages
	r.Get("/signin", pageHandler.SignIn)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	r.Group(func(r chi.Router) {
		r.Use(authn.RequirePage)
		r.Get("/dashboard", pageHandler.Dashboard)
		r.Get("/keys", pageHandler.Keys)
		r.Get("/playground", pageHandler.Playground)
		r.Get("/settings", pageHandler.Settings)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, deps.Metrics.Handler())
	}

	return r
}
