package payments

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-orders/internal/platform/db"
)

// TxRepository appends to and reads the payment ledger. There is no update
// or delete.
type TxRepository interface {
	Insert(ctx context.Context, p Payment) (int64, error)
	ListByOrder(ctx context.Context, orderID int64) ([]Payment, error)
}

type pgRepository struct {
	q db.Querier
}

// NewTxRepository binds the ledger to q.
func NewTxRepository(q db.Querier) TxRepository {
	return &pgRepository{q: q}
}

func (r *pgRepository) Insert(ctx context.Context, p Payment) (int64, error) {
	var id int64
	var comment *string
	if p.Comment != "" {
		comment = &p.Comment
	}
	err := r.q.QueryRow(ctx, `INSERT INTO payments (order_id, amount, method, is_advance, comment, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0), NOW()) RETURNING id`,
		p.OrderID, p.Amount, string(p.Method), p.IsAdvance, comment, p.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("payments: insert: %w", err)
	}
	return id, nil
}

func (r *pgRepository) ListByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT id, order_id, amount, method, is_advance, COALESCE(comment, ''), COALESCE(created_by, 0), created_at
FROM payments WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		var method string
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &method, &p.IsAdvance, &p.Comment, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Method = Method(method)
		out = append(out, p)
	}
	return out, rows.Err()
}
