package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderStatusChanged is enqueued after every committed status change.
	TaskOrderStatusChanged = "orders:status.changed"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "orders:idempotency.cleanup"
)

// StatusChangedPayload describes a committed status change. Trace holds the
// W3C trace context of the request that committed it.
type StatusChangedPayload struct {
	OrderID   int64             `json:"order_id"`
	Status    string            `json:"status"`
	ChangedAt time.Time         `json:"changed_at"`
	Trace     map[string]string `json:"trace,omitempty"`
}

// NewStatusChangedTask constructs the automation task for an order.
func NewStatusChangedTask(payload StatusChangedPayload) (*asynq.Task, error) {
	if payload.OrderID <= 0 {
		return nil, errors.New("jobs: order id required")
	}
	if payload.Status == "" {
		return nil, errors.New("jobs: status required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusChanged, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// IdempotencyCleanupPayload carries the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
