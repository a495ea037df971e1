package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/events"
	"github.com/odyssey-erp/odyssey-orders/internal/payments"
	"github.com/odyssey-erp/odyssey-orders/internal/platform/db"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

const numberAttempts = 3

// CreateOrder creates an order, its items, their reservations, the promo
// discount and the optional advance in one transaction.
func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (*Order, error) {
	const op = "orders.create"
	actor, err := s.authorize(ctx, shared.PermOrderCreate)
	if err != nil {
		return nil, s.finish(ctx, op, err)
	}
	cmd, err := ValidateCreate(in)
	if err != nil {
		return nil, s.finish(ctx, op, err)
	}

	var order *Order
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		order, err = s.createOnce(ctx, actor, cmd)
		if err == nil || !db.IsUniqueViolation(err) {
			break
		}
		s.logger.Warn("order number collision, retrying", slog.Int("attempt", attempt))
		if attempt == numberAttempts {
			err = ErrOrderNumberExhaust
		}
	}
	if err != nil {
		return nil, s.finish(ctx, op, err)
	}

	s.record(ctx, actor, op, order.ID, map[string]any{
		"number":   order.Number,
		"total":    order.TotalAmount.String(),
		"discount": order.DiscountAmount.String(),
		"items":    len(order.Items),
	})
	s.publish(ctx, events.Event{Type: events.OrderCreated, OrderID: order.ID, Payload: events.OrderCreatedPayload{
		OrderID:  order.ID,
		Number:   order.Number,
		ClientID: order.ClientID,
		Total:    order.TotalAmount.String(),
		Discount: order.DiscountAmount.String(),
		Items:    len(order.Items),
	}})
	return order, nil
}

func (s *Service) createOnce(ctx context.Context, actor shared.Actor, cmd CreateCommand) (*Order, error) {
	var created *Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		repo := tx.Orders()
		exists, err := repo.ClientExists(ctx, cmd.ClientID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrClientNotFound
		}

		last, err := repo.LastOrderNumber(ctx)
		if err != nil {
			return err
		}
		order := Order{
			Number:         FormatNumber(s.cfg.NumberPrefix, s.now(), NextSequence(last, s.cfg.NumberBase)),
			Status:         workflow.StatusNew,
			Priority:       cmd.Priority,
			IsUrgent:       cmd.IsUrgent,
			ClientID:       cmd.ClientID,
			TotalAmount:    decimal.Zero,
			DiscountAmount: decimal.Zero,
			PaidAmount:     decimal.Zero,
			PromocodeID:    cmd.PromocodeID,
			PaymentMethod:  string(cmd.PaymentMethod),
			Deadline:       cmd.Deadline,
			CreatedBy:      actor.ID,
			CreatedAt:      s.now(),
		}
		order.UpdatedAt = order.CreatedAt
		id, err := repo.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id

		for _, it := range cmd.Items {
			it.OrderID = id
			itemID, err := repo.InsertItem(ctx, it)
			if err != nil {
				return err
			}
			it.ID = itemID
			order.Items = append(order.Items, it)
		}
		if err := s.reservations.Reserve(ctx, tx.Inventory(), order.Ref(actor.ID), order.Lines()); err != nil {
			return err
		}

		var promo *Promocode
		if cmd.PromocodeID != nil {
			p, active, err := repo.ConsumePromocode(ctx, *cmd.PromocodeID)
			if err != nil {
				return err
			}
			if active {
				promo = &p
			}
		}
		order.DiscountAmount, order.TotalAmount = ApplyDiscount(Subtotal(order.Items), promo)

		if cmd.AdvanceAmount.IsPositive() {
			advance, err := payments.NewPayment(payments.PaymentInput{
				OrderID:   id,
				Amount:    cmd.AdvanceAmount,
				Method:    string(cmd.PaymentMethod),
				IsAdvance: true,
				ActorID:   actor.ID,
			})
			if err != nil {
				return err
			}
			if _, err := tx.Payments().Insert(ctx, advance); err != nil {
				return err
			}
			order.PaidAmount = advance.Amount
		}

		if err := repo.SetAmounts(ctx, id, order.TotalAmount, order.DiscountAmount, order.PaidAmount); err != nil {
			return err
		}
		created = &order
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return created, nil
}
