// Package httptransport assembles the chi router and the auth, dashboard and
// catalog endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"medgate/pkg/platform/httputil"
	"medgate/pkg/platform/middleware/metadata"
	request "medgate/pkg/platform/middleware/request"
	"medgate/pkg/platform/middleware/requesttime"
)

const requestTimeout = 30 * time.Second

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

type Metrics interface {
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

type RouterOption func(*routerOptions)

type routerOptions struct {
	metrics        Metrics
	metricsHandler http.Handler
	ready          func() error
}

// WithMetrics records request latency and exposes h on GET /metrics.
func WithMetrics(m Metrics, h http.Handler) RouterOption {
	return func(o *routerOptions) {
		o.metrics = m
		o.metricsHandler = h
	}
}

// WithReadiness makes /healthz report 503 while check fails.
func WithReadiness(check func() error) RouterOption {
	return func(o *routerOptions) {
		o.ready = check
	}
}

// NewRouter builds the root router with the shared middleware chain.
func NewRouter(logger *slog.Logger, registrars []Registrar, opts ...RouterOption) chi.Router {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Timeout(requestTimeout))
	if o.metrics != nil {
		r.Use(latency(o.metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if o.ready != nil {
			if err := o.ready(); err != nil {
				logger.Warn("readiness check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if o.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", o.metricsHandler)
	}

	for _, reg := range registrars {
		reg.Register(r)
	}
	return r
}

// latency labels by route pattern rather than raw path to keep cardinality
// bounded.
func latency(m Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}
