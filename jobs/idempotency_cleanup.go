package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-orders/internal/jobs"
)

// DefaultIdempotencyRetention bounds how long request keys are remembered.
const DefaultIdempotencyRetention = 72 * time.Hour

// KeyCleaner deletes idempotency keys older than the retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyCleanupJob consumes TaskIdempotencyCleanup.
type IdempotencyCleanupJob struct {
	store   KeyCleaner
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob constructs the job.
func NewIdempotencyCleanupJob(store KeyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyCleanupJob{store: store, logger: logger, metrics: metrics}
}

// Handle purges expired keys.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultIdempotencyRetention
	}
	tracker := j.metrics.Track(TaskIdempotencyCleanup)
	err := j.store.Cleanup(ctx, payload.Retention)
	if err != nil {
		j.logger.Error("idempotency cleanup", slog.Any("error", err))
	} else {
		j.logger.Info("idempotency keys purged", slog.Duration("retention", payload.Retention))
	}
	return tracker.End(err)
}
