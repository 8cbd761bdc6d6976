// Package main is the entry point for the shopdesk category service.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopdesk/internal/backend"
	"shopdesk/internal/cache"
	"shopdesk/internal/catalog"
	"shopdesk/internal/config"
	"shopdesk/internal/database"
	"shopdesk/internal/handlers"
	"shopdesk/internal/middleware"
	"shopdesk/internal/router"
	"shopdesk/internal/session"
	"shopdesk/internal/storage"
	"shopdesk/internal/store"
)

// pruneInterval is how often old audit entries are removed.
const pruneInterval = 6 * time.Hour

func main() {
	// Load configuration from the environment (and .env when present).
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	var logHandler slog.Handler
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"tenant", cfg.TenantID,
		"backend", cfg.BackendURL,
	)

	// Connect to PostgreSQL (mutation audit log).
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
	mutationLog := store.NewMutationLogStore(db)

	// Connect to Valkey (tree snapshot cache + dashboard sessions).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	treeCache := cache.NewTreeCache(valkeyClient, cfg.TenantID, cfg.TreeCacheTTL)

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies).WithPageSize(cfg.CategoryPageSize)

	remote := backend.New(backend.Config{
		BaseURL:  cfg.BackendURL,
		Token:    cfg.BackendToken,
		TenantID: cfg.TenantID,
		Timeout:  cfg.BackendTimeout,
	})

	opts := catalog.Options{
		Cache:         treeCache,
		Audit:         mutationLog,
		TenantID:      cfg.TenantID,
		MaxImageWidth: cfg.MaxImageWidth,
	}

	// Direct S3 uploads are optional; the backend's upload endpoint is used
	// otherwise.
	if cfg.S3Enabled() {
		storageClient, err := storage.New(storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
			TenantID:  cfg.TenantID,
		})
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		if storageClient != nil {
			opts.Uploader = storageClient
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
		}
	} else {
		slog.Info("s3 storage not configured, images go through the backend")
	}

	categories := catalog.New(remote, opts)

	// A failed first sync is not fatal: the dashboard retries lazily.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.BackendTimeout)
	if err := categories.Load(loadCtx); err != nil {
		slog.Warn("initial category sync failed", "error", err)
	}
	cancelLoad()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer limiter.Stop()

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go pruneMutations(bgCtx, mutationLog, cfg.AuditRetention)

	health := handlers.NewHealth(categories, map[string]handlers.Check{
		"postgres": db.PingContext,
		"valkey": func(ctx context.Context) error {
			return valkeyClient.Ping(ctx).Err()
		},
	})
	dashboard := handlers.NewDashboard(categories, sessionStore, mutationLog, cfg.TenantID, cfg.CategoryPageSize)

	r := router.New(router.Options{
		Dashboard: dashboard,
		Health:    health,
		Sessions:  sessionStore,
		Limiter:   limiter,
		Secure:    secureCookies,
	})

	// WriteTimeout covers a backend round trip plus a resync after a move.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.BackendTimeout + 15*time.Second,
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// pruneMutations periodically deletes audit entries older than retention.
func pruneMutations(ctx context.Context, s *store.MutationLogStore, retention time.Duration) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		n, err := s.Prune(ctx, retention)
		if err != nil {
			slog.Warn("mutation log prune failed", "error", err)
		} else if n > 0 {
			slog.Info("mutation log pruned", "deleted", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
