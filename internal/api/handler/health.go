package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/jinxlo/api-dashboard/internal/api/response"
	"github.com/rs/zerolog/log"
)

const readyTimeout = 3 * time.Second

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck pings every dependency and reports 503 if any is down
func ReadyCheck(deps map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(names))
		ready := true
		for _, name := range names {
			if err := deps[name].Ping(ctx); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
				checks[name] = "unavailable"
				ready = false
				continue
			}
			checks[name] = "ok"
		}

		if !ready {
			response.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not ready",
				"checks": checks,
			})
			return
		}

		response.OK(w, map[string]any{
			"status": "ready",
			"checks": checks,
		})
	}
}
