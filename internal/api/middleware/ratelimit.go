package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jinxlo/api-dashboard/internal/api/response"
	"github.com/rs/zerolog/log"
)

// Limiter decides whether the caller identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int, time.Time, error)
	Limit() int
}

// KeyFunc derives the rate limit key for a request
type KeyFunc func(r *http.Request) string

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	limiter Limiter
	key     KeyFunc
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter Limiter, key KeyFunc) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, key: key}
}

// ByUser keys on the signed-in user and falls back to the client address
func ByUser(r *http.Request) string {
	if userID, ok := GetUserID(r.Context()); ok {
		return "user:" + userID
	}
	return ByIP(r)
}

// ByIP keys on the client address. RealIP must run first for proxies to be honored.
func ByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// Limit applies the limiter. Limiter failures let the request through.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetTime, err := m.limiter.Allow(r.Context(), m.key(r))
		if err != nil {
			log.Warn().Err(err).Msg("Rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetTime).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.TooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
