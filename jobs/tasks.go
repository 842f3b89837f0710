package jobs

import (
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAssetsPurge removes the asset directory of a deleted product.
	TaskAssetsPurge = "assets:purge"
)

// AssetPurgePayload names the product whose assets are removed.
type AssetPurgePayload struct {
	ProductID string `json:"product_id"`
}

// NewAssetPurgeTask builds an assets:purge task.
func NewAssetPurgeTask(productID string) (*asynq.Task, error) {
	if productID == "" {
		return nil, errors.New("jobs: product id required")
	}
	body, err := json.Marshal(AssetPurgePayload{ProductID: productID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssetsPurge, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}
