// Package handlers implements the HTTP surface of the tmplpress server:
// public template rendering backed by the engine, with a Valkey page
// cache in front of it.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tmplpress/internal/cache"
	"tmplpress/internal/engine"
	"tmplpress/internal/loader"
)

// Public groups handlers for the public-facing render endpoints. It
// checks the Valkey page cache before invoking the template engine, and
// stores rendered results on miss. pageCache may be nil when Valkey is
// not configured; rendering then always goes through the engine.
type Public struct {
	env       *engine.Environment
	pageCache *cache.PageCache
}

// NewPublic creates a new Public handler group.
func NewPublic(env *engine.Environment, pageCache *cache.PageCache) *Public {
	return &Public{env: env, pageCache: pageCache}
}

// Render serves GET /t/* — it resolves the named template through the
// engine's context-aware surface and renders it with the request's query
// parameters as template variables.
func (p *Public) Render(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "*")

	// Only cache parameterless renders; query variables make the output
	// request-specific.
	cacheable := p.pageCache != nil && len(r.URL.Query()) == 0
	if cacheable {
		if cached, ok := p.pageCache.Get(ctx, name); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(cached)
			return
		}
	}

	tmpl, err := p.env.GetTemplateContext(ctx, name, nil)
	if err != nil {
		if engine.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		slog.Error("template resolution failed", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	vars := make(map[string]any)
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			vars[key] = vals[0]
		}
	}

	rendered, err := tmpl.Render(vars)
	if err != nil {
		slog.Error("template render failed", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if cacheable {
		p.pageCache.Set(ctx, name, []byte(rendered))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(rendered))
}

// List serves GET /templates — a JSON listing of every template the
// configured loader can enumerate.
func (p *Public) List(w http.ResponseWriter, r *http.Request) {
	names, err := p.env.ListTemplatesContext(r.Context())
	if err != nil {
		if errors.Is(err, loader.ErrNoListing) {
			http.Error(w, "listing not supported by the template source", http.StatusNotImplemented)
			return
		}
		slog.Error("template listing failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"templates": names})
}
