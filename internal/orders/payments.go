package orders

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-orders/internal/events"
	"github.com/odyssey-erp/odyssey-orders/internal/payments"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// AddPayment appends a positive entry to the order's ledger. Overpayment is
// allowed and shows up as a negative balance.
func (s *Service) AddPayment(ctx context.Context, in payments.PaymentInput) (payments.Payment, error) {
	const op = "orders.payment"
	actor, err := s.authorize(ctx, shared.PermOrderPayment)
	if err != nil {
		return payments.Payment{}, s.finish(ctx, op, err)
	}
	if in.OrderID <= 0 {
		return payments.Payment{}, s.finish(ctx, op, ErrInvalidOrderID)
	}
	in.ActorID = actor.ID
	entry, err := payments.NewPayment(in)
	if err != nil {
		return payments.Payment{}, s.finish(ctx, op, err)
	}
	entry, err = s.appendEntry(ctx, entry)
	if err != nil {
		return payments.Payment{}, s.finish(ctx, op, err)
	}
	s.record(ctx, actor, op, entry.OrderID, map[string]any{
		"payment_id": entry.ID,
		"amount":     entry.Amount.String(),
		"method":     string(entry.Method),
		"is_advance": entry.IsAdvance,
	})
	s.publishPayment(ctx, entry)
	return entry, nil
}

// Refund appends a negative entry carrying the reason. Refunds are not
// checked against the amount paid in.
func (s *Service) Refund(ctx context.Context, in payments.RefundInput) (payments.Payment, error) {
	const op = "orders.refund"
	actor, err := s.authorize(ctx, shared.PermOrderRefund)
	if err != nil {
		return payments.Payment{}, s.finish(ctx, op, err)
	}
	if in.OrderID <= 0 {
		return payments.Payment{}, s.finish(ctx, op, ErrInvalidOrderID)
	}
	in.ActorID = actor.ID
	entry, err := payments.NewRefund(in)
	if err != nil {
		return payments.Payment{}, s.finish(ctx, op, err)
	}
	entry, err = s.appendEntry(ctx, entry)
	if err != nil {
		return payments.Payment{}, s.finish(ctx, op, err)
	}
	s.record(ctx, actor, op, entry.OrderID, map[string]any{
		"payment_id": entry.ID,
		"amount":     entry.Amount.String(),
		"reason":     in.Reason,
	})
	s.publishPayment(ctx, entry)
	return entry, nil
}

func (s *Service) appendEntry(ctx context.Context, entry payments.Payment) (payments.Payment, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Orders().GetOrder(ctx, entry.OrderID); err != nil {
			return err
		}
		id, err := tx.Payments().Insert(ctx, entry)
		if err != nil {
			return err
		}
		entry.ID = id
		return nil
	})
	if err != nil {
		return payments.Payment{}, fmt.Errorf("record payment for order %d: %w", entry.OrderID, err)
	}
	return entry, nil
}

func (s *Service) publishPayment(ctx context.Context, p payments.Payment) {
	s.publish(ctx, events.Event{Type: events.PaymentRecorded, OrderID: p.OrderID, Payload: events.PaymentPayload{
		OrderID:   p.OrderID,
		PaymentID: p.ID,
		Amount:    p.Amount.String(),
		Method:    string(p.Method),
		IsAdvance: p.IsAdvance,
	}})
}

// Balance computes total minus the signed sum of the order's payments and
// returns the ledger entries it was computed from.
func (s *Service) Balance(ctx context.Context, orderID int64) (payments.Summary, error) {
	const op = "orders.balance"
	if _, err := s.authorize(ctx, shared.PermOrderView); err != nil {
		return payments.Summary{}, s.finish(ctx, op, err)
	}
	if orderID <= 0 {
		return payments.Summary{}, s.finish(ctx, op, ErrInvalidOrderID)
	}
	var summary payments.Summary
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		order, err := tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		entries, err := tx.Payments().ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		summary = payments.Balance(order.TotalAmount, entries)
		return nil
	})
	return summary, s.finish(ctx, op, err)
}

// GetOrder loads an order with its items.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	const op = "orders.view"
	if _, err := s.authorize(ctx, shared.PermOrderView); err != nil {
		return nil, s.finish(ctx, op, err)
	}
	if orderID <= 0 {
		return nil, s.finish(ctx, op, ErrInvalidOrderID)
	}
	var order *Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		order, err = tx.Orders().GetOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, s.finish(ctx, op, err)
	}
	return order, nil
}
