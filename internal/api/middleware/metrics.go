package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the console's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	KeysCreatedTotal    prometheus.Counter
	KeysRevokedTotal    prometheus.Counter
	SignInAttemptsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "atlas_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		KeysCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atlas_api_keys_created_total",
			Help: "API keys issued",
		}),
		KeysRevokedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atlas_api_keys_revoked_total",
			Help: "API key revocation requests",
		}),
		SignInAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_signin_attempts_total",
				Help: "Sign-in attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.KeysCreatedTotal,
		m.KeysRevokedTotal,
		m.SignInAttemptsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// SignInAttempt implements service.Recorder
func (m *Metrics) SignInAttempt(outcome string) {
	m.SignInAttemptsTotal.WithLabelValues(outcome).Inc()
}

// KeyCreated implements service.Recorder
func (m *Metrics) KeyCreated() {
	m.KeysCreatedTotal.Inc()
}

// KeyRevoked implements service.Recorder
func (m *Metrics) KeyRevoked() {
	m.KeysRevokedTotal.Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument records request counts and latency labeled by route pattern
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
