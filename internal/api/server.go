// SPDX-License-Identifier: MIT

// Package api provides the HTTP interface of the settings daemon.
package api

import (
	"net/http"

	"github.com/ManuGH/appsettings/internal/api/middleware"
	"github.com/ManuGH/appsettings/internal/config"
	"github.com/ManuGH/appsettings/internal/health"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/ManuGH/appsettings/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/unicode/norm"
)

// maxBodyBytes bounds PUT bodies; a single scalar never needs more.
const maxBodyBytes = 64 << 10

// Options wires optional collaborators into the server.
type Options struct {
	// Persister enables POST /api/v1/save and revision reporting. May be nil.
	Persister *store.Persister
	// Health serves /healthz and /readyz. May be nil.
	Health *health.Manager
	Config config.APIConfig
	// Service names spans; empty disables tracing.
	Service string
}

// Server represents the HTTP API over one settings registry.
type Server struct {
	reg     *settings.Registry
	persist *store.Persister
	health  *health.Manager
	cfg     config.APIConfig
	service string
}

// New creates a server for reg.
func New(reg *settings.Registry, opts Options) *Server {
	return &Server{
		reg:     reg,
		persist: opts.Persister,
		health:  opts.Health,
		cfg:     opts.Config,
		service: opts.Service,
	}
}

// Handler returns the routed HTTP handler with the ingress stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:   s.cfg.MetricsEnabled,
		TracingService:  s.service,
		EnableLogging:   true,
		EnableRateLimit: s.cfg.RateLimitEnabled,
		RateLimitRPM:    s.cfg.RateLimitRPM,
	})

	if s.health != nil {
		r.Get("/healthz", s.health.ServeHealth)
		r.Get("/readyz", s.health.ServeReady)
	}
	if s.cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/settings", s.handleTree)
		r.Get("/constants", s.handleConstants)
		r.Get("/overrides", s.handleOverrides)

		r.Get("/groups", s.handleGroup)
		r.Get("/groups/*", s.handleGroup)

		r.Get("/values/*", s.handleGetValue)
		r.Put("/values/*", s.handleSetValue)

		r.Post("/reset", s.handleResetAll)
		r.Post("/reset/*", s.handleReset)

		r.Post("/save", s.handleSave)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, CodeNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, CodeInvalidRequest, "method not allowed")
	})
	return r
}

// settingPath extracts the wildcard tail of the route as a settings path.
// Names are compared byte-wise, so the tail is normalised to NFC.
func settingPath(r *http.Request) string {
	return norm.NFC.String(chi.URLParam(r, "*"))
}
