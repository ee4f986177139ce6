// main is the entry point of the roster API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the record store selected by storage.driver
//  4. Reset the store to the baseline roster (unless skip_seed)
//  5. Register the HTTP routes and the metrics endpoint
//  6. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// RUNNING THE SERVER:
//
//	go run ./cmd/roster-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/roster-api
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/aanand-mishra/roster-api/internal/config"
	"github.com/aanand-mishra/roster-api/internal/http/handlers/student"
	"github.com/aanand-mishra/roster-api/internal/metrics"
	"github.com/aanand-mishra/roster-api/internal/roster"
	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/storage/memory"
	"github.com/aanand-mishra/roster-api/internal/storage/redisstore"
	"github.com/aanand-mishra/roster-api/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting roster-api",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closer.Close()

	svc := roster.New(store,
		roster.WithLogger(log),
		roster.WithMetrics(metrics.New(prometheus.DefaultRegisterer)),
	)

	// Seeding is an explicit startup step, run before the first request
	// can reach the store.
	if !cfg.SkipSeed {
		if err := svc.InitializeSeedSet(ctx); err != nil {
			log.Error("failed to seed roster", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	router := http.NewServeMux()
	student.Register(router, svc)
	router.Handle("GET "+cfg.HTTPServer.MetricsPath, promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		// ErrServerClosed is the normal result of Shutdown.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, stopping server...")

		// Finish in-flight requests, up to 5 seconds.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// openStorage builds the record store named by cfg.Driver. The returned
// closer releases its connections.
func openStorage(ctx context.Context, cfg config.Storage) (storage.Storage, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		client, err := redisstore.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(client, redisstore.WithPrefix(cfg.RedisPrefix)), client, nil
	case config.DriverMemory:
		return memory.New(), io.NopCloser(nil), nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create storage dir: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
}
