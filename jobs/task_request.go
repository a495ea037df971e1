package jobs

import (
	"context"

	"github.com/odyssey-erp/odyssey-orders/internal/events"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

// EventPublisher is the subset of *events.Publisher used by TaskRequestRule.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// TaskRequestRule hands status changes to the task generator by publishing
// an events.TasksRequested envelope. Cancelled orders generate no work.
type TaskRequestRule struct {
	Publisher EventPublisher
}

// Applies implements StatusRule.
func (r TaskRequestRule) Applies(status workflow.Status) bool {
	return r.Publisher != nil && status != workflow.StatusCancelled
}

// Apply implements StatusRule.
func (r TaskRequestRule) Apply(ctx context.Context, payload StatusChangedPayload) error {
	return r.Publisher.Publish(ctx, events.Event{
		Type:    events.TasksRequested,
		OrderID: payload.OrderID,
		Payload: payload,
	})
}
