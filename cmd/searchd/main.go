// Command searchd runs the search engine as an HTTP service: it wires
// config, logging, metrics, the engine, the optional Postgres preload and
// Kafka ingest pipeline, and shuts down gracefully on SIGINT/SIGTERM with
// a final snapshot when one is configured.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/searchlite/searchlite"
	"github.com/searchlite/searchlite/internal/ingest"
	"github.com/searchlite/searchlite/internal/server"
	"github.com/searchlite/searchlite/internal/server/l2cache"
	"github.com/searchlite/searchlite/internal/storage"
	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/health"
	"github.com/searchlite/searchlite/pkg/logger"
	"github.com/searchlite/searchlite/pkg/metrics"
	pkgredis "github.com/searchlite/searchlite/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var engineOpts []searchlite.Option
	if m != nil {
		engineOpts = append(engineOpts, searchlite.WithMetrics(m))
	}
	engine := searchlite.NewFromConfig(cfg.Engine, engineOpts...)

	if cfg.Engine.SnapshotPath != "" {
		if err := engine.LoadSnapshot(cfg.Engine.SnapshotPath); err != nil {
			slog.Warn("no usable snapshot, starting empty",
				"path", cfg.Engine.SnapshotPath, "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	checker.Register("engine", func(ctx context.Context) health.ComponentHealth {
		stats := engine.GetStats()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", stats.TotalDocuments, stats.TotalTerms),
		}
	})

	var l2 *l2cache.Cache
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("redis unavailable, disabling l2 cache", "error", err)
		} else {
			defer client.Close()
			l2 = l2cache.New(client, cfg.Redis.CacheTTL)
			checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
				if err := client.Ping(ctx); err != nil {
					return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
				}
				return health.ComponentHealth{Status: health.StatusUp}
			})
		}
	}

	if cfg.Postgres.Enabled {
		store, err := storage.Open(cfg.Postgres)
		if err != nil {
			slog.Error("postgres unavailable, skipping preload", "error", err)
		} else {
			defer store.Close()
			count, err := store.LoadAll(ctx, engine)
			if err != nil {
				slog.Error("document preload failed", "loaded", count, "error", err)
			} else {
				slog.Info("document preload complete", "loaded", count)
			}
		}
	}

	if cfg.Kafka.Enabled {
		producer := ingest.NewProducer(cfg.Kafka)
		defer producer.Close()
		consumer := ingest.NewConsumer(cfg.Kafka, engine, producer)
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("ingest consumer stopped", "error", err)
			}
		}()
	}

	handler := server.NewHandler(engine, l2, cfg.Server.DefaultLimit, cfg.Server.MaxResults)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler, checker, m),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("searchd listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	if cfg.Engine.SnapshotPath != "" {
		if err := engine.SaveSnapshot(cfg.Engine.SnapshotPath); err != nil {
			slog.Error("final snapshot failed", "path", cfg.Engine.SnapshotPath, "error", err)
		}
	}
	slog.Info("shutdown complete")
}
