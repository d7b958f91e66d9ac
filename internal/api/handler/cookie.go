package handler

import (
	"net/http"
	"time"

	"github.com/jinxlo/api-dashboard/internal/domain"
)

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

func (c CookieConfig) set(w http.ResponseWriter, token *domain.SessionToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token.Token,
		Path:     "/",
		Expires:  token.ExpiresAt,
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
