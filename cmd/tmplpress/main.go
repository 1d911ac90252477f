// Package main is the entry point for the tmplpress server.
// It loads configuration, wires the template source and caches into the
// engine, sets up routing, and starts the HTTP server with graceful
// shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tmplpress/internal/bccache"
	"tmplpress/internal/cache"
	"tmplpress/internal/config"
	"tmplpress/internal/database"
	"tmplpress/internal/engine"
	"tmplpress/internal/handlers"
	"tmplpress/internal/loader"
	"tmplpress/internal/router"
	"tmplpress/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"template_source", cfg.TemplateSource,
		"bytecode_cache", cfg.BytecodeBackend,
	)

	// Set up the template source.
	var ld loader.Loader
	switch cfg.TemplateSource {
	case config.SourceDatabase:
		// Connect to PostgreSQL and migrate.
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		// Seed starter templates in development (no-op if data exists).
		if cfg.IsDev() {
			if err := database.Seed(db); err != nil {
				slog.Error("failed to seed database", "error", err)
				os.Exit(1)
			}
		}

		ld = loader.NewDatabaseLoader(store.NewTemplateStore(db))
	case config.SourceFS:
		ld = loader.NewFileSystemLoader(cfg.TemplateDir)
	}

	// Connect to Valkey when enabled. It backs the page cache and,
	// optionally, the bytecode cache.
	var pageCache *cache.PageCache
	var bc bccache.Cache
	if cfg.ValkeyEnabled {
		client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		pageCache = cache.NewPageCache(client, cache.DefaultPageTTL)

		if cfg.BytecodeBackend == config.BytecodeValkey {
			bc = bccache.NewValkeyCache(client, cfg.BytecodeTTL)
		}
	} else {
		slog.Warn("valkey disabled, page caching off")
	}

	if cfg.BytecodeBackend == config.BytecodeFS {
		if err := os.MkdirAll(cfg.BytecodeDir, 0o755); err != nil {
			slog.Error("failed to create bytecode cache dir", "error", err)
			os.Exit(1)
		}
		bc = bccache.NewFileSystemCache(cfg.BytecodeDir)
	}

	env := buildEnvironment(cfg, ld, bc)
	run(cfg, env, pageCache)
}

// buildEnvironment assembles the template engine from configuration.
func buildEnvironment(cfg *config.Config, ld loader.Loader, bc bccache.Cache) *engine.Environment {
	env := engine.New(ld)
	env.SetCacheSize(cfg.CacheSize)
	env.SetAutoescape(cfg.Autoescape)
	if bc != nil {
		env.SetBytecodeCache(bc)
	}

	// Optionally precompile templates so the first requests hit warm
	// caches instead of paying compile cost.
	if cfg.WarmupFilter != "" {
		if err := env.CompileTemplates(cfg.WarmupFilter, false); err != nil {
			slog.Warn("template warmup finished with errors", "error", err)
		} else {
			slog.Info("template warmup complete", "filter", cfg.WarmupFilter)
		}
	}

	return env
}

// run starts the HTTP server and blocks until shutdown.
func run(cfg *config.Config, env *engine.Environment, pageCache *cache.PageCache) {
	public := handlers.NewPublic(env, pageCache)
	r := router.New(public)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
