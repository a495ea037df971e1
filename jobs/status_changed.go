package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	jobmetrics "github.com/odyssey-erp/odyssey-orders/internal/jobs"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

// StatusRule reacts to a committed status change, e.g. notifying the client
// when an order ships.
type StatusRule interface {
	Applies(status workflow.Status) bool
	Apply(ctx context.Context, payload StatusChangedPayload) error
}

// StatusChangedJob consumes TaskOrderStatusChanged.
type StatusChangedJob struct {
	Rules   []StatusRule
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStatusChangedJob wires dependencies for the automation handler.
func NewStatusChangedJob(logger *slog.Logger, metrics *jobmetrics.Metrics, rules ...StatusRule) *StatusChangedJob {
	return &StatusChangedJob{Rules: rules, Logger: logger, Metrics: metrics}
}

// Handle processes one status change task.
func (j *StatusChangedJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("status changed: handler not configured")
	}
	var payload StatusChangedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	status, err := workflow.ParseStatus(payload.Status)
	if err != nil || payload.OrderID <= 0 {
		return asynq.SkipRetry
	}

	if len(payload.Trace) > 0 {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(payload.Trace))
	}

	tracker := j.Metrics.Track(TaskOrderStatusChanged)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("order_id", payload.OrderID), slog.String("status", status.String()))
	for _, rule := range j.Rules {
		if !rule.Applies(status) {
			continue
		}
		if err := rule.Apply(ctx, payload); err != nil {
			logger.Error("status rule failed", slog.Any("error", err))
			return err
		}
	}
	j.Metrics.ObserveStatus(status.String())
	logger.Info("status change processed")
	return nil
}

func (j *StatusChangedJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
