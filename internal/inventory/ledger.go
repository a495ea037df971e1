package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/platform/db"
)

// TxLedger exposes the atomic stock primitives available inside a unit of
// work. Every mutation is a single guarded statement; callers never read and
// write back counters.
type TxLedger interface {
	// Reserve increments reserved_quantity by qty only if the result stays
	// within quantity. Returns ErrInsufficientStock otherwise.
	Reserve(ctx context.Context, itemID int64, qty float64) error
	// Release decrements reserved_quantity by qty, floored at zero. Unknown
	// items are ignored.
	Release(ctx context.Context, itemID int64, qty float64) error
	// Deduct decrements quantity and reserved_quantity by qty, both floored
	// at zero, and returns the item's recorded cost.
	Deduct(ctx context.Context, itemID int64, qty float64) (decimal.Decimal, error)
	// LargestStock locks and returns the location holding the most of the
	// item, or nil when the item has no location rows.
	LargestStock(ctx context.Context, itemID int64) (*Stock, error)
	// DeductStock decrements a location balance, floored at zero.
	DeductStock(ctx context.Context, stockID int64, qty float64) error
	// InsertTransaction appends a movement record.
	InsertTransaction(ctx context.Context, tx Transaction) (int64, error)
}

// pgLedger implements TxLedger on a pgx transaction.
type pgLedger struct {
	q db.Querier
}

// NewTxLedger binds the ledger to q, normally a pgx.Tx.
func NewTxLedger(q db.Querier) TxLedger {
	return &pgLedger{q: q}
}

func (l *pgLedger) Reserve(ctx context.Context, itemID int64, qty float64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	tag, err := l.q.Exec(ctx, `UPDATE inventory_items
SET reserved_quantity = reserved_quantity + $2, updated_at = NOW()
WHERE id = $1 AND reserved_quantity + $2 <= quantity`, itemID, qty)
	if err != nil {
		return fmt.Errorf("inventory: reserve: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := l.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM inventory_items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
		return fmt.Errorf("inventory: reserve lookup: %w", err)
	}
	if !exists {
		return ErrItemNotFound
	}
	return ErrInsufficientStock
}

func (l *pgLedger) Release(ctx context.Context, itemID int64, qty float64) error {
	if qty <= 0 {
		return nil
	}
	_, err := l.q.Exec(ctx, `UPDATE inventory_items
SET reserved_quantity = GREATEST(reserved_quantity - $2, 0), updated_at = NOW()
WHERE id = $1`, itemID, qty)
	if err != nil {
		return fmt.Errorf("inventory: release: %w", err)
	}
	return nil
}

func (l *pgLedger) Deduct(ctx context.Context, itemID int64, qty float64) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	var cost decimal.Decimal
	err := l.q.QueryRow(ctx, `UPDATE inventory_items
SET quantity = GREATEST(quantity - $2, 0),
    reserved_quantity = GREATEST(reserved_quantity - $2, 0),
    updated_at = NOW()
WHERE id = $1
RETURNING cost_price`, itemID, qty).Scan(&cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrItemNotFound
		}
		return decimal.Zero, fmt.Errorf("inventory: deduct: %w", err)
	}
	return cost, nil
}

func (l *pgLedger) LargestStock(ctx context.Context, itemID int64) (*Stock, error) {
	var s Stock
	err := l.q.QueryRow(ctx, `SELECT id, item_id, location, quantity FROM inventory_stocks
WHERE item_id = $1
ORDER BY quantity DESC, id
LIMIT 1
FOR UPDATE`, itemID).Scan(&s.ID, &s.ItemID, &s.Location, &s.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("inventory: largest stock: %w", err)
	}
	return &s, nil
}

func (l *pgLedger) DeductStock(ctx context.Context, stockID int64, qty float64) error {
	_, err := l.q.Exec(ctx, `UPDATE inventory_stocks SET quantity = GREATEST(quantity - $2, 0), updated_at = NOW() WHERE id = $1`, stockID, qty)
	if err != nil {
		return fmt.Errorf("inventory: deduct stock: %w", err)
	}
	return nil
}

func (l *pgLedger) InsertTransaction(ctx context.Context, tx Transaction) (int64, error) {
	var id int64
	var location *string
	if tx.Location != "" {
		location = &tx.Location
	}
	var orderID *int64
	if tx.OrderID > 0 {
		orderID = &tx.OrderID
	}
	err := l.q.QueryRow(ctx, `INSERT INTO inventory_transactions
(item_id, order_id, type, change_amount, reason, location, cost_price, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0), NOW())
RETURNING id`, tx.ItemID, orderID, string(tx.Type), tx.ChangeAmount, tx.Reason, location, tx.CostPrice, tx.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inventory: insert transaction: %w", err)
	}
	return id, nil
}
