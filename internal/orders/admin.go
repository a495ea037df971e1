package orders

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-orders/internal/events"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// UpdatePriority changes the priority of one order.
func (s *Service) UpdatePriority(ctx context.Context, orderID int64, priority string) error {
	return s.SetPriority(ctx, []int64{orderID}, priority)
}

// SetPriority changes the priority of every order in ids with one batched
// update. Either all rows change or none do.
func (s *Service) SetPriority(ctx context.Context, ids []int64, priority string) error {
	const op = "orders.priority"
	actor, err := s.authorize(ctx, shared.PermOrderPriority)
	if err != nil {
		return s.finish(ctx, op, err)
	}
	p, err := ParsePriority(priority)
	if err != nil {
		return s.finish(ctx, op, err)
	}
	ids, err = ValidateSelection(ids)
	if err != nil {
		return s.finish(ctx, op, err)
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		n, err := tx.Orders().SetPriority(ctx, ids, p)
		if err != nil {
			return err
		}
		return expectRows(n, ids)
	})
	if err != nil {
		return s.finish(ctx, op, err)
	}
	s.recordBatch(ctx, actor, op, ids, map[string]any{"priority": string(p)})
	return nil
}

// ArchiveOrder sets or clears the archive flag of one order.
func (s *Service) ArchiveOrder(ctx context.Context, orderID int64, archive bool) error {
	return s.SetArchived(ctx, []int64{orderID}, archive)
}

// SetArchived sets or clears the archive flag on every order in ids with one
// batched update.
func (s *Service) SetArchived(ctx context.Context, ids []int64, archive bool) error {
	const op = "orders.archive"
	actor, err := s.authorize(ctx, shared.PermOrderArchive)
	if err != nil {
		return s.finish(ctx, op, err)
	}
	ids, err = ValidateSelection(ids)
	if err != nil {
		return s.finish(ctx, op, err)
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		n, err := tx.Orders().SetArchived(ctx, ids, archive)
		if err != nil {
			return err
		}
		return expectRows(n, ids)
	})
	if err != nil {
		return s.finish(ctx, op, err)
	}
	s.recordBatch(ctx, actor, op, ids, map[string]any{"archived": archive})
	return nil
}

// DeleteOrder removes an order, releasing its reservation first when it
// still holds one. Only admin and management may delete.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	const op = "orders.delete"
	actor, err := s.authorize(ctx, shared.PermOrderDelete)
	if err != nil {
		return s.finish(ctx, op, err)
	}
	if orderID <= 0 {
		return s.finish(ctx, op, ErrInvalidOrderID)
	}
	var number string
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		order, err := tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		number = order.Number
		if order.Status.Reservable() {
			if err := s.reservations.Release(ctx, tx.Inventory(), order.Ref(actor.ID), order.Lines()); err != nil {
				return err
			}
		}
		return tx.Orders().DeleteOrder(ctx, order.ID)
	})
	if err != nil {
		return s.finish(ctx, op, fmt.Errorf("delete order %d: %w", orderID, err))
	}
	s.record(ctx, actor, op, orderID, map[string]any{"number": number})
	s.publish(ctx, events.Event{Type: events.OrderDeleted, OrderID: orderID, Payload: events.OrderUpdatedPayload{OrderID: orderID}})
	return nil
}

func (s *Service) recordBatch(ctx context.Context, actor shared.Actor, op string, ids []int64, fields map[string]any) {
	for _, id := range ids {
		s.record(ctx, actor, op, id, fields)
		s.publish(ctx, events.Event{Type: events.OrderUpdated, OrderID: id, Payload: events.OrderUpdatedPayload{OrderID: id, Fields: fields}})
	}
}

// expectRows fails with ErrOrderNotFound when a batch touched fewer rows than
// requested, rolling the whole batch back.
func expectRows(n int64, ids []int64) error {
	if n == int64(len(ids)) {
		return nil
	}
	if len(ids) == 1 {
		return ErrOrderNotFound
	}
	return fmt.Errorf("%w: %d of %d orders matched", ErrOrderNotFound, n, len(ids))
}
