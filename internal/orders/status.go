package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/odyssey-orders/internal/events"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

// StatusChange describes a committed transition.
type StatusChange struct {
	OrderID int64
	Number  string
	From    workflow.Status
	To      workflow.Status
	Effect  workflow.Effect
	Changed bool
}

// UpdateStatus moves an order through the pipeline and applies the stock
// side effect of the transition in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status, reason string) (StatusChange, error) {
	const op = "orders.status"
	actor, err := s.authorize(ctx, shared.PermOrderStatus)
	if err != nil {
		return StatusChange{}, s.finish(ctx, op, err)
	}
	cmd, err := ValidateStatusChange(orderID, status, reason)
	if err != nil {
		return StatusChange{}, s.finish(ctx, op, err)
	}

	var change StatusChange
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		order, err := tx.Orders().GetOrder(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		change = StatusChange{OrderID: order.ID, Number: order.Number, From: order.Status, To: cmd.Status}
		if order.Status == cmd.Status {
			return nil
		}
		if err := cmd.Check(); err != nil {
			return err
		}
		effect, err := workflow.Plan(order.Status, cmd.Status)
		if err != nil {
			return err
		}
		if err := tx.Orders().UpdateStatus(ctx, order.ID, order.Status, cmd.Status, cmd.Reason); err != nil {
			return err
		}
		switch effect {
		case workflow.EffectDeduct:
			if _, err := s.reservations.Deduct(ctx, tx.Inventory(), order.Ref(actor.ID), order.Lines()); err != nil {
				return err
			}
		case workflow.EffectRelease:
			if err := s.reservations.Release(ctx, tx.Inventory(), order.Ref(actor.ID), order.Lines()); err != nil {
				return err
			}
		}
		change.Effect = effect
		change.Changed = true
		return nil
	})
	if err != nil {
		return StatusChange{}, s.finish(ctx, op, fmt.Errorf("update status of order %d: %w", cmd.OrderID, err))
	}
	if !change.Changed {
		return change, nil
	}

	s.record(ctx, actor, op, change.OrderID, map[string]any{
		"from":   change.From.String(),
		"to":     change.To.String(),
		"effect": change.Effect.String(),
		"reason": cmd.Reason,
	})
	if s.automation != nil {
		if err := s.automation.StatusChanged(ctx, change.OrderID, change.To); err != nil {
			s.logger.Warn("automation hook failed", slog.Int64("order_id", change.OrderID), slog.String("status", change.To.String()), slog.Any("error", err))
			if s.errs != nil {
				s.errs.Report(ctx, "orders.automation", err)
			}
		}
	}
	s.publish(ctx, events.Event{Type: events.OrderStatusChanged, OrderID: change.OrderID, Payload: events.StatusChangedPayload{
		OrderID: change.OrderID,
		Number:  change.Number,
		From:    change.From.String(),
		To:      change.To.String(),
		Reason:  cmd.Reason,
		ActorID: actor.ID,
	}})
	return change, nil
}

// ReleaseOrderReservation returns the reserved stock of orderID inside an
// already open unit of work.
func (s *Service) ReleaseOrderReservation(ctx context.Context, tx Tx, orderID int64) error {
	order, err := tx.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	actorID := int64(0)
	if actor, ok := shared.ActorFromContext(ctx); ok {
		actorID = actor.ID
	}
	return s.reservations.Release(ctx, tx.Inventory(), order.Ref(actorID), order.Lines())
}
