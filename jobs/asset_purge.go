package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/catalog3d/catalog/internal/assets"
	jobmetrics "github.com/catalog3d/catalog/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AssetPurgeJob deletes {root}/{productId} from the Asset Store.
type AssetPurgeJob struct {
	Store   assets.Store
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAssetPurgeJob wires dependencies for the purge handler.
func NewAssetPurgeJob(store assets.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *AssetPurgeJob {
	return &AssetPurgeJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes assets:purge tasks. Malformed payloads and invalid ids
// are not retried.
func (j *AssetPurgeJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("asset purge: handler not configured")
	}
	var payload AssetPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("asset purge: decode payload: %w", asynq.SkipRetry)
	}
	if err := assets.ValidName(payload.ProductID); err != nil {
		return fmt.Errorf("asset purge: product id %q: %w", payload.ProductID, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskAssetsPurge)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("product_id", payload.ProductID))
	if err := j.Store.RemoveAll(assets.ModelDir(payload.ProductID)); err != nil {
		logger.Error("purge product assets", slog.Any("error", err))
		return err
	}
	logger.Info("purged product assets")
	return nil
}

func (j *AssetPurgeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AssetPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
