package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aguilarsoft/cartsync/api/controllers"
	"github.com/aguilarsoft/cartsync/api/routes"
	cartsvc "github.com/aguilarsoft/cartsync/internal/cart"
	"github.com/aguilarsoft/cartsync/pkg/cartapi"
	"github.com/aguilarsoft/cartsync/pkg/catalog"
	"github.com/aguilarsoft/cartsync/pkg/config"
	"github.com/aguilarsoft/cartsync/pkg/logger"
	"github.com/aguilarsoft/cartsync/pkg/metrics"
	"github.com/aguilarsoft/cartsync/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cartd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cartd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	var (
		snapshots cartsvc.SnapshotStore
		kvPinger  controllers.Pinger
	)
	if cfg.FeatureFlags.UseMemoryStore {
		snapshots = cartsvc.NewMemorySnapshots()
		logg.Warn(ctx, "using in-memory snapshot store, cart will not survive restarts")
	} else {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		snapshots = cartsvc.NewRedisSnapshots(redisClient, cfg.Sync.Scope)
		kvPinger = redisClient
	}

	remote, err := cartapi.NewClient(ctx, cfg.Remote, logg)
	if err != nil {
		logg.Error(ctx, "failed to create remote cart client", err)
		os.Exit(1)
	}

	catalogClient, err := catalog.NewClient(ctx, cfg.Catalog, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog client", err)
		os.Exit(1)
	}
	var lookup cartsvc.CatalogLookup
	if catalogClient != nil {
		lookup = catalogClient
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	store, err := cartsvc.NewStore(ctx, cartsvc.StoreParams{
		Logger:    logg,
		Remote:    remote,
		Snapshots: snapshots,
		Catalog:   lookup,
		Metrics:   syncMetrics,
		Config:    cfg.Sync,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"scope": cfg.Sync.Scope,
	})
	logg.Info(startCtx, "starting cartd server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:   cfg,
			Logger:   logg,
			Store:    store,
			Tokens:   remote,
			Snapshot: kvPinger,
			Gatherer: registry,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(startCtx, "cartd server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(startCtx, "shutting down cartd server")
		timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(startCtx, "error during server shutdown", err)
		}
		// Background cart propagation finishes before the process exits.
		store.Wait()
	}
}
