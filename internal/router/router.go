// Package router sets up all HTTP routes and middleware chains for the
// shopdesk category dashboard API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopdesk/internal/handlers"
	"shopdesk/internal/middleware"
)

// Options carries the collaborators the route table is built from.
type Options struct {
	Dashboard *handlers.Dashboard
	Health    http.Handler
	Sessions  middleware.SessionStore
	Limiter   *middleware.RateLimiter // nil disables rate limiting
	Secure    bool                    // HTTPS-only cookies
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Operational endpoints: no session, no CSRF.
	r.Method(http.MethodGet, "/health", opts.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	d := opts.Dashboard
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.Secure))
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}
		r.Use(middleware.LoadSession(opts.Sessions))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", d.List)
			r.Post("/refresh", d.Refresh)
			r.Post("/upload", d.Upload)
			r.Get("/link-suggestion", d.LinkSuggestion)
			r.Get("/{id}", d.Get)
			r.Get("/{id}/children", d.Children)
			r.Get("/{id}/history", d.History)
			r.Put("/{id}", d.Update)
			r.Delete("/{id}", d.Delete)
		})

		r.Route("/wizard", func(r chi.Router) {
			r.Get("/", d.WizardState)
			r.Post("/open", d.WizardOpen)
			r.Post("/parent/{id}", d.WizardSelectParent)
			r.Post("/back", d.WizardBack)
			r.Post("/cancel", d.WizardCancel)
			r.Post("/submit", d.WizardSubmit)
		})

		r.Get("/mutations", d.Mutations)
	})

	return r
}
