package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/catalog3d/catalog/internal/app"
	"github.com/catalog3d/catalog/internal/assets"
	"github.com/catalog3d/catalog/internal/observability"
	"github.com/catalog3d/catalog/internal/platform/cache"
	"github.com/catalog3d/catalog/internal/products"
	"github.com/catalog3d/catalog/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("catalog stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	store, err := assets.NewFS(cfg.AssetsRoot)
	if err != nil {
		return err
	}

	repo, err := app.OpenRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, running without cache and jobs", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	var (
		purger     products.AssetPurger
		jobHandler *jobs.Handler
	)
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		purger = jobClient
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	metrics := observability.NewMetrics()
	productService := products.NewService(repo.Repository, store, newCache(redisClient, cfg.CacheTTL), purger, cfg.ProductOptions(), logger)
	productHandler := products.NewHandler(logger, productService, store, metrics)

	params := app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		ProductHandler: productHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
		Ready:          repo.Ready,
	}
	if cfg.AssetsServe {
		params.Assets = http.Dir(store.Root)
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewRouter(params),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newCache(client *redis.Client, ttl time.Duration) *products.Cache {
	if client == nil {
		return nil
	}
	return products.NewCache(client, ttl)
}
