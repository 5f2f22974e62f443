// Package httptransport composes the feature routers into the public
// HTTP surface.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sebexam/internal/platform/metrics"
	"sebexam/internal/platform/middleware"
	"sebexam/internal/transport/http/shared"
)

// Registrar is anything that attaches routes to the root router. Every
// feature handler satisfies it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency. Checks run with a short deadline so
// a wedged dependency cannot hang the probe.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Handlers []Registrar
	Health   map[string]HealthCheck
}

// NewRouter wires the global middleware chain, the feature handlers, and
// the operational endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))

	for _, handler := range deps.Handlers {
		handler.Register(r)
	}

	r.Get("/healthz", healthHandler(deps.Health))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		shared.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": results,
		})
	}
}
