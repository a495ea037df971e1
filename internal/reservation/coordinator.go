// Package reservation keeps inventory reservations in step with order
// lifecycle events. It runs inside the caller's unit of work and never opens
// transactions of its own.
package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/odyssey-erp/odyssey-orders/internal/inventory"
)

// OrderRef identifies the order a movement belongs to.
type OrderRef struct {
	ID      int64
	Number  string
	ActorID int64
}

// Line is an order line as seen by the coordinator. Lines without an
// inventory item are skipped.
type Line struct {
	InventoryItemID *int64
	Quantity        float64
}

func (l Line) stocked() (int64, bool) {
	if l.InventoryItemID == nil || *l.InventoryItemID <= 0 || l.Quantity <= 0 {
		return 0, false
	}
	return *l.InventoryItemID, true
}

// movement is the merged quantity of one item across an order's lines.
type movement struct {
	itemID   int64
	quantity float64
}

// movements merges stocked lines by item and sorts them by ascending item
// ID so concurrent orders lock inventory rows in the same order.
func movements(lines []Line) []movement {
	index := make(map[int64]int, len(lines))
	var out []movement
	for _, line := range lines {
		itemID, ok := line.stocked()
		if !ok {
			continue
		}
		if i, seen := index[itemID]; seen {
			out[i].quantity += line.Quantity
			continue
		}
		index[itemID] = len(out)
		out = append(out, movement{itemID: itemID, quantity: line.Quantity})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].itemID < out[j].itemID })
	return out
}

// Coordinator orchestrates ledger primitives for an order.
type Coordinator struct {
	logger *slog.Logger
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{logger: logger}
}

// Reserve commits stock for every stocked line. The first failure is
// returned and the caller must roll back its transaction.
func (c *Coordinator) Reserve(ctx context.Context, ledger inventory.TxLedger, order OrderRef, lines []Line) error {
	for _, m := range movements(lines) {
		if err := ledger.Reserve(ctx, m.itemID, m.quantity); err != nil {
			return fmt.Errorf("reserve item %d: %w", m.itemID, err)
		}
	}
	return nil
}

// Release returns reserved stock for every stocked line. It is safe to call
// more than once since counters are floored at zero.
func (c *Coordinator) Release(ctx context.Context, ledger inventory.TxLedger, order OrderRef, lines []Line) error {
	for _, m := range movements(lines) {
		if err := ledger.Release(ctx, m.itemID, m.quantity); err != nil {
			return fmt.Errorf("release item %d: %w", m.itemID, err)
		}
	}
	c.logger.Debug("reservation released", slog.Int64("order_id", order.ID), slog.Int("lines", len(lines)))
	return nil
}

// Deduct physically removes stock for every stocked item and records one
// outbound transaction per item.
func (c *Coordinator) Deduct(ctx context.Context, ledger inventory.TxLedger, order OrderRef, lines []Line) ([]inventory.Transaction, error) {
	var recorded []inventory.Transaction
	for _, m := range movements(lines) {
		itemID, qty := m.itemID, m.quantity
		cost, err := ledger.Deduct(ctx, itemID, qty)
		if err != nil {
			return nil, fmt.Errorf("deduct item %d: %w", itemID, err)
		}
		stock, err := ledger.LargestStock(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("select location for item %d: %w", itemID, err)
		}
		if stock != nil {
			if stock.Quantity < qty {
				c.logger.Warn("location short for deduction",
					slog.Int64("order_id", order.ID),
					slog.Int64("item_id", itemID),
					slog.String("location", stock.Location),
					slog.Float64("available", stock.Quantity),
					slog.Float64("required", qty))
			}
			if err := ledger.DeductStock(ctx, stock.ID, qty); err != nil {
				return nil, fmt.Errorf("deduct location %d: %w", stock.ID, err)
			}
		}
		tx := inventory.NewFulfillment(itemID, qty, cost, stock, order.ID, order.Number, order.ActorID)
		id, err := ledger.InsertTransaction(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("record deduction for item %d: %w", itemID, err)
		}
		tx.ID = id
		recorded = append(recorded, tx)
	}
	return recorded, nil
}
