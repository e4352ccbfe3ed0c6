package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	phttp "github.com/predialis/predialis/internal/adapter/http"
	pnats "github.com/predialis/predialis/internal/adapter/nats"
	"github.com/predialis/predialis/internal/adapter/postgres"
	"github.com/predialis/predialis/internal/adapter/ws"
	"github.com/predialis/predialis/internal/config"
	"github.com/predialis/predialis/internal/logger"
	"github.com/predialis/predialis/internal/middleware"
	"github.com/predialis/predialis/internal/service"
	"github.com/predialis/predialis/internal/session"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	// NATS is optional: without it, toggles still land in the database and
	// clients converge on their next fetch.
	var queue *pnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = pnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
		log.Info("nats connected", "url", cfg.NATS.URL)
	}

	// --- Services ---

	tickets := session.New(30 * time.Second)
	stopJanitor := tickets.StartJanitor(time.Minute)
	defer stopJanitor()
	hub := ws.NewHub(tickets)

	store := postgres.NewStore(pool)
	authSvc := service.NewAuthService(store, &cfg.Auth)
	resolver := service.NewResolver(store)

	var tenantSvc *service.TenantService
	if queue != nil {
		tenantSvc = service.NewTenantService(store, queue, hub)
	} else {
		tenantSvc = service.NewTenantService(store, nil, hub)
	}

	if err := authSvc.SeedDefaultAdmin(ctx); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// --- HTTP ---

	handlers := &phttp.Handlers{
		Auth:     authSvc,
		Resolver: resolver,
		Tenants:  tenantSvc,
		Hub:      hub,
	}

	loginLimiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := loginLimiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()

	r.Use(phttp.CORS(cfg.Server.CORSOrigin))
	r.Use(phttp.SecurityHeaders)
	r.Use(phttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Identity(authSvc))
	r.Use(middleware.BindTenant(resolver))

	phttp.MountRoutes(r, handlers, loginLimiter)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(r, "predialis-core"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
		}
	}()

	<-done
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
