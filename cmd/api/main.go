package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/you/busroutes/handlers"
	"github.com/you/busroutes/internal/catalog"
	"github.com/you/busroutes/internal/config"
	"github.com/you/busroutes/internal/search"
	"github.com/you/busroutes/repository"
)

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("API server stopped", "error", err)
		os.Exit(1)
	}
}

// catalogRepository is what the API needs from either storage backend
type catalogRepository interface {
	catalog.Source
	handlers.RouteCounter
}

func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (catalogRepository, func(), error) {
	if cfg.UsePostgres() {
		repo, err := repository.NewRouteRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, nil, err
		}
		logger.Info("PostgreSQL connection established")
		return repo, repo.Close, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLiteDatabase), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	sqliteDB, err := repository.NewSQLiteDB(cfg.SQLiteDatabase)
	if err != nil {
		return nil, nil, err
	}
	if err := sqliteDB.EnsureSchema(ctx); err != nil {
		sqliteDB.Close()
		return nil, nil, err
	}
	logger.Info("SQLite database connection established", "path", cfg.SQLiteDatabase)
	return repository.NewSQLiteRouteRepository(sqliteDB.GetDB()), func() { sqliteDB.Close() }, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeRepo()

	store := catalog.NewStore()
	refresher := catalog.NewRefresher(repo, store, cfg.CatalogRefresh(), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, store, repo, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return refresher.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("API server starting", "addr", srv.Addr, "max_transfers", cfg.MaxTransfers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newRouter(cfg *config.Config, store *catalog.Store, repo handlers.RouteCounter, logger *slog.Logger) http.Handler {
	opts := search.DefaultOptions()
	opts.MaxTransfers = cfg.MaxTransfers

	routeHandler := handlers.NewRouteHandler(store, opts, cfg.SearchTimeout(), cfg.SearchMaxConcurrent, logger)
	healthHandler := handlers.NewHealthHandler(store, repo)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/api/ping", healthHandler.Ping)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(handlers.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute).Middleware)
		}
		r.Get("/api/find-routes", routeHandler.FindRoutes)
	})

	r.Get("/api/routes", routeHandler.ListRoutes)
	r.Get("/api/routes/{number}", routeHandler.GetRoute)
	r.Get("/api/stops", routeHandler.SearchStops)

	return r
}
