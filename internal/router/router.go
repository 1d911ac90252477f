// Package router sets up the HTTP routes and middleware chain for the
// tmplpress server.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tmplpress/internal/handlers"
	"tmplpress/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and routes wired up.
func New(public *handlers.Public) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check — no rate limit.
	r.Get("/health", healthHandler)

	// Public render surface, rate limited per client IP.
	limiter := middleware.NewRateLimiter(120, time.Minute)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/templates", public.List)
		r.Get("/t/*", public.Render)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
