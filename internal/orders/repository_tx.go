package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

// txRepository implements TxRepository.
type txRepository struct {
	tx pgx.Tx
}

// GetOrder loads an order and its items.
func (t *txRepository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	query := `
		SELECT id, order_number, status, priority, is_urgent, client_id,
			total_amount, discount_amount, paid_amount, promocode_id,
			COALESCE(payment_method, ''), deadline, COALESCE(cancel_reason, ''),
			is_archived, COALESCE(created_by, 0), created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	var o Order
	var priority string
	err := t.tx.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Number, &o.Status, &priority, &o.IsUrgent, &o.ClientID,
		&o.TotalAmount, &o.DiscountAmount, &o.PaidAmount, &o.PromocodeID,
		&o.PaymentMethod, &o.Deadline, &o.CancelReason,
		&o.IsArchived, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Priority = Priority(priority)

	rows, err := t.tx.Query(ctx, `
		SELECT id, order_id, inventory_item_id, quantity, price, description
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.InventoryItemID, &it.Quantity, &it.Price, &it.Description); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return &o, nil
}

// LastOrderNumber returns the most recently created order number.
func (t *txRepository) LastOrderNumber(ctx context.Context) (string, error) {
	var number string
	err := t.tx.QueryRow(ctx, `SELECT order_number FROM orders ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("last order number: %w", err)
	}
	return number, nil
}

// ClientExists reports whether the client is known.
func (t *txRepository) ClientExists(ctx context.Context, clientID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1)`, clientID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check client: %w", err)
	}
	return exists, nil
}

// InsertOrder creates the order row.
func (t *txRepository) InsertOrder(ctx context.Context, o Order) (int64, error) {
	query := `
		INSERT INTO orders (
			order_number, status, priority, is_urgent, client_id,
			total_amount, discount_amount, paid_amount, promocode_id,
			payment_method, deadline, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, NULLIF($12, 0))
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		o.Number, o.Status, string(o.Priority), o.IsUrgent, o.ClientID,
		o.TotalAmount, o.DiscountAmount, o.PaidAmount, o.PromocodeID,
		o.PaymentMethod, o.Deadline, o.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

// InsertItem creates an order line.
func (t *txRepository) InsertItem(ctx context.Context, it Item) (int64, error) {
	query := `
		INSERT INTO order_items (order_id, inventory_item_id, quantity, price, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query, it.OrderID, it.InventoryItemID, it.Quantity, it.Price, it.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order item: %w", err)
	}
	return id, nil
}

// ConsumePromocode increments usage_count of an active promocode.
func (t *txRepository) ConsumePromocode(ctx context.Context, id int64) (Promocode, bool, error) {
	var p Promocode
	var discountType string
	err := t.tx.QueryRow(ctx, `
		UPDATE promocodes
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING id, code, discount_type, value, is_active, usage_count
	`, id).Scan(&p.ID, &p.Code, &discountType, &p.Value, &p.IsActive, &p.UsageCount)
	if err == nil {
		p.DiscountType = DiscountType(discountType)
		return p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Promocode{}, false, fmt.Errorf("consume promocode: %w", err)
	}
	var exists bool
	if err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM promocodes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return Promocode{}, false, fmt.Errorf("check promocode: %w", err)
	}
	if !exists {
		return Promocode{}, false, ErrPromocodeNotFound
	}
	return Promocode{}, false, nil
}

// SetAmounts stores the computed money fields.
func (t *txRepository) SetAmounts(ctx context.Context, id int64, total, discount, paid decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET total_amount = $2, discount_amount = $3, paid_amount = $4, updated_at = NOW()
		WHERE id = $1
	`, id, total, discount, paid)
	if err != nil {
		return fmt.Errorf("set order amounts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdateStatus performs a compare-and-swap on the status column.
func (t *txRepository) UpdateStatus(ctx context.Context, id int64, from, to workflow.Status, reason string) error {
	var cancelReason *string
	if reason != "" {
		cancelReason = &reason
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET status = $3, cancel_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to, cancelReason)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

// SetPriority updates priority for every id.
func (t *txRepository) SetPriority(ctx context.Context, ids []int64, p Priority) (int64, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET priority = $2, updated_at = NOW() WHERE id = ANY($1)`, ids, string(p))
	if err != nil {
		return 0, fmt.Errorf("update order priority: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetArchived toggles the archive flag for every id.
func (t *txRepository) SetArchived(ctx context.Context, ids []int64, archived bool) (int64, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET is_archived = $2, updated_at = NOW() WHERE id = ANY($1)`, ids, archived)
	if err != nil {
		return 0, fmt.Errorf("update order archive flag: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteOrder removes the order; items and payments cascade.
func (t *txRepository) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
