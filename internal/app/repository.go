package app

import (
	"context"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/catalog3d/catalog/internal/platform/db"
	"github.com/catalog3d/catalog/internal/platform/mongodb"
	"github.com/catalog3d/catalog/internal/products"
	"github.com/catalog3d/catalog/migrations"
)

const maxPGConns = 10

// Repository is an opened product repository with its readiness check and
// release hook.
type Repository struct {
	products.Repository
	Ready func(*http.Request) error
	Close func()
}

// OpenRepository connects the store selected by STORE_DRIVER. Postgres
// schemas are migrated and Mongo indexes ensured before returning.
func OpenRepository(ctx context.Context, cfg *Config, logger *slog.Logger) (*Repository, error) {
	switch cfg.StoreDriver {
	case StoreMongo:
		client, err := mongodb.New(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		database := client.Database(cfg.MongoDatabase)
		if err := products.EnsureMongoIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &Repository{
			Repository: products.NewMongoRepository(database),
			Ready: func(r *http.Request) error {
				return client.Ping(r.Context(), readpref.Primary())
			},
			Close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Warn("mongo disconnect", slog.Any("error", err))
				}
			},
		}, nil
	default:
		pool, err := db.New(ctx, cfg.PGDSN, maxPGConns)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool, migrations.Files, logger); err != nil {
			pool.Close()
			return nil, err
		}
		return &Repository{
			Repository: products.NewRepository(pool),
			Ready: func(r *http.Request) error {
				return pool.Ping(r.Context())
			},
			Close: pool.Close,
		}, nil
	}
}
