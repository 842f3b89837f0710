package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/catalog3d/catalog/cmd/catalogctl/cli"
	"github.com/catalog3d/catalog/internal/app"
	"github.com/catalog3d/catalog/internal/assets"
	"github.com/catalog3d/catalog/internal/platform/cache"
	"github.com/catalog3d/catalog/internal/products"
)

const usage = `usage:
  catalogctl seed [file.json]      create demo products
  catalogctl jobs stats            show the default queue
  catalogctl jobs purge <product>  enqueue an asset purge`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger, os.Args[1:], os.Stdout); err != nil {
		logger.Error("catalogctl", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "seed":
		return seed(ctx, cfg, logger, args[1:], out)
	case "jobs":
		return jobsCmd(ctx, cfg, args[1:], out)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func seed(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string, out io.Writer) error {
	entries := cli.DefaultSeed
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		if entries, err = cli.LoadSeed(f); err != nil {
			return err
		}
	}

	store, err := assets.NewFS(cfg.AssetsRoot)
	if err != nil {
		return err
	}
	repo, err := app.OpenRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Writes bump the shared read cache so a running server sees the seed.
	var readCache *products.Cache
	client, err := cache.New(ctx, cfg.RedisAddr)
	switch {
	case err != nil:
		logger.Warn("redis unavailable, cached reads may be stale", slog.Any("error", err))
	case client != nil:
		defer client.Close()
		readCache = products.NewCache(client, cfg.CacheTTL)
	}

	service := products.NewService(repo.Repository, store, readCache, nil, cfg.ProductOptions(), logger)
	ids, err := cli.Seed(ctx, service, entries)
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return err
}

func jobsCmd(ctx context.Context, cfg *app.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer jobsCLI.Close()

	switch args[0] {
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		return nil
	case "purge":
		if len(args) < 2 {
			return errors.New(usage)
		}
		info, err := jobsCLI.PurgeAssets(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "enqueued %s on %s\n", info.ID, info.Queue)
		return nil
	default:
		return fmt.Errorf("unknown jobs command %q\n%s", args[0], usage)
	}
}
