package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"classroom/internal/classroom"
	"classroom/internal/classroom/adapter/identity"
	"classroom/internal/classroom/adapter/inmem"
	"classroom/internal/classroom/adapter/jwtverify"
	"classroom/internal/classroom/adapter/postgres"
	"classroom/internal/classroom/httpapi"
	"classroom/internal/classroom/middleware"
	"classroom/internal/classroom/repository"
	"classroom/internal/platform/config"
	"classroom/internal/platform/server"
	"classroom/internal/platform/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	// Logging
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	shutdown, err := telemetry.Setup(context.Background(), "classroom")
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		slog.Error("metrics initialization failed", "error", err)
		os.Exit(1)
	}

	// Document store: Postgres when a DSN is configured, in-memory otherwise.
	var store classroom.DocumentStore
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			slog.Error("opening postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgStore, err := postgres.NewStore(ctx, db)
		if err != nil {
			slog.Error("initializing postgres store", "error", err)
			os.Exit(1)
		}
		store = pgStore
		slog.Info("using postgres document store")
	} else {
		store = inmem.NewStore()
		slog.Warn("POSTGRES not set, using in-memory document store; data will not survive restarts")
	}

	repo := repository.New(store, metrics)

	// Identity provider
	verifier := jwtverify.New(cfg.JWKSEndpoint, 5*time.Minute)
	claims := identity.NewClient(cfg.IdentityAdminURL)

	// Rate limiter
	rl := inmem.NewRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window, time.Now)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()

	// Router
	router := httpapi.NewRouter(httpapi.Deps{
		Repo:            repo,
		Verifier:        verifier,
		Claims:          claims,
		Limiter:         rl,
		RateLimitWindow: cfg.RateLimit.Window,
		Metrics:         metrics,
		Version:         cfg.Version,
	})

	// Assemble outer middleware chain
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	mux.Handle("/", middleware.Chain(
		router,
		middleware.Metrics(metrics),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recovery,
		middleware.MaxBodySize(cfg.MaxBodyBytes),
	))

	srv := server.New(cfg.Addr, mux)

	slog.Info("classroom API starting",
		"addr", cfg.Addr,
		"jwks_endpoint", cfg.JWKSEndpoint,
		"identity_admin_url", cfg.IdentityAdminURL,
		"rate_limit_max", cfg.RateLimit.Max,
		"rate_limit_window", cfg.RateLimit.Window.String(),
	)

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}

	if err := shutdown(context.Background()); err != nil {
		slog.Error("telemetry shutdown error", "error", err)
	}
}
