package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/inventory"
	"github.com/odyssey-erp/odyssey-orders/internal/payments"
	"github.com/odyssey-erp/odyssey-orders/internal/platform/db"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

// Store opens units of work. It is the only place a transaction boundary is
// created; everything reachable from fn runs inside it.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Orders() TxRepository
	Inventory() inventory.TxLedger
	Payments() payments.TxRepository
}

// TxRepository exposes order persistence inside a unit of work.
type TxRepository interface {
	// GetOrder loads the order with its items.
	GetOrder(ctx context.Context, id int64) (*Order, error)
	// LastOrderNumber returns the number of the most recently created order,
	// or "" when there are none.
	LastOrderNumber(ctx context.Context) (string, error)
	ClientExists(ctx context.Context, clientID int64) (bool, error)
	InsertOrder(ctx context.Context, o Order) (int64, error)
	InsertItem(ctx context.Context, it Item) (int64, error)
	// ConsumePromocode increments usage of an active promocode and returns
	// it. The bool is false when the code exists but is inactive.
	ConsumePromocode(ctx context.Context, id int64) (Promocode, bool, error)
	SetAmounts(ctx context.Context, id int64, total, discount, paid decimal.Decimal) error
	// UpdateStatus moves the order from -> to only if it is still in from.
	UpdateStatus(ctx context.Context, id int64, from, to workflow.Status, reason string) error
	// SetPriority and SetArchived update every id in one statement and
	// return the number of rows touched.
	SetPriority(ctx context.Context, ids []int64, p Priority) (int64, error)
	SetArchived(ctx context.Context, ids []int64, archived bool) (int64, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// repository implements Store using pgxpool.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Store backed by PostgreSQL.
func NewRepository(pool *pgxpool.Pool) Store {
	return &repository{pool: pool}
}

// pgTx implements Tx.
type pgTx struct {
	orders    *txRepository
	inventory inventory.TxLedger
	payments  payments.TxRepository
}

func (t *pgTx) Orders() TxRepository            { return t.orders }
func (t *pgTx) Inventory() inventory.TxLedger   { return t.inventory }
func (t *pgTx) Payments() payments.TxRepository { return t.payments }

// WithTx wraps fn in a read-committed transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{
			orders:    &txRepository{tx: tx},
			inventory: inventory.NewTxLedger(tx),
			payments:  payments.NewTxRepository(tx),
		})
	})
}
