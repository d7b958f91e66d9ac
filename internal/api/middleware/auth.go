package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jinxlo/api-dashboard/internal/api/response"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/rs/zerolog/log"
)

type contextKey string

const sessionKey contextKey = "session"

// RevocationChecker reports whether a session id was signed out
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Authenticator gates routes on a valid session carried in the session cookie or a bearer header
type Authenticator struct {
	sessions   *security.SessionManager
	cookieName string
	revoked    RevocationChecker
}

// NewAuthenticator creates a new authenticator. revoked may be nil.
func NewAuthenticator(sessions *security.SessionManager, cookieName string, revoked RevocationChecker) *Authenticator {
	return &Authenticator{
		sessions:   sessions,
		cookieName: cookieName,
		revoked:    revoked,
	}
}

// RequireAPI rejects unauthenticated requests with 401 JSON
func (a *Authenticator) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := a.authenticate(r)
		if !ok {
			response.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequirePage redirects unauthenticated browsers to the sign-in page
func (a *Authenticator) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := a.authenticate(r)
		if !ok {
			target := "/signin?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// Optional attaches the session when one is present without rejecting the request
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, ok := a.authenticate(r); ok {
			r = r.WithContext(WithSession(r.Context(), session))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*domain.Session, bool) {
	token := a.token(r)
	if token == "" {
		return nil, false
	}

	session, err := a.sessions.Validate(token)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected session token")
		return nil, false
	}

	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(r.Context(), session.TokenID)
		if err != nil {
			// fail open when the revocation list is unreachable
			log.Warn().Err(err).Msg("Session revocation check failed")
		} else if revoked {
			return nil, false
		}
	}

	return session, true
}

func (a *Authenticator) token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if cookie, err := r.Cookie(a.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// WithSession stores the session in ctx
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// GetSession gets the authenticated session from context
func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*domain.Session)
	return session, ok && session != nil
}

// GetUserID gets the user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	session, ok := GetSession(ctx)
	if !ok {
		return "", false
	}
	return session.UserID, true
}
