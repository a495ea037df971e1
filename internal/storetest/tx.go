package storetest

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/inventory"
	"github.com/odyssey-erp/odyssey-orders/internal/orders"
	"github.com/odyssey-erp/odyssey-orders/internal/payments"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

type memTx struct {
	store *Store
	st    *state
}

func (t *memTx) Orders() orders.TxRepository     { return (*memOrders)(t) }
func (t *memTx) Inventory() inventory.TxLedger   { return (*memLedger)(t) }
func (t *memTx) Payments() payments.TxRepository { return (*memPayments)(t) }

type memOrders memTx

func (r *memOrders) GetOrder(_ context.Context, id int64) (*orders.Order, error) {
	if err := r.store.injected("GetOrder"); err != nil {
		return nil, err
	}
	o, ok := r.st.orders[id]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (r *memOrders) LastOrderNumber(_ context.Context) (string, error) {
	if len(r.st.orderSeq) == 0 {
		return "", nil
	}
	for i := len(r.st.orderSeq) - 1; i >= 0; i-- {
		if o, ok := r.st.orders[r.st.orderSeq[i]]; ok {
			return o.Number, nil
		}
	}
	return "", nil
}

func (r *memOrders) ClientExists(_ context.Context, clientID int64) (bool, error) {
	return r.st.clients[clientID], nil
}

func (r *memOrders) InsertOrder(_ context.Context, o orders.Order) (int64, error) {
	if err := r.store.injected("InsertOrder"); err != nil {
		return 0, err
	}
	o.ID = r.st.id()
	o.Items = nil
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	r.st.orders[o.ID] = &o
	r.st.orderSeq = append(r.st.orderSeq, o.ID)
	return o.ID, nil
}

func (r *memOrders) InsertItem(_ context.Context, it orders.Item) (int64, error) {
	o, ok := r.st.orders[it.OrderID]
	if !ok {
		return 0, orders.ErrOrderNotFound
	}
	it.ID = r.st.id()
	o.Items = append(o.Items, it)
	return it.ID, nil
}

func (r *memOrders) ConsumePromocode(_ context.Context, id int64) (orders.Promocode, bool, error) {
	p, ok := r.st.promos[id]
	if !ok {
		return orders.Promocode{}, false, orders.ErrPromocodeNotFound
	}
	if !p.IsActive {
		return orders.Promocode{}, false, nil
	}
	p.UsageCount++
	return *p, true, nil
}

func (r *memOrders) SetAmounts(_ context.Context, id int64, total, discount, paid decimal.Decimal) error {
	o, ok := r.st.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	o.TotalAmount, o.DiscountAmount, o.PaidAmount = total, discount, paid
	return nil
}

func (r *memOrders) UpdateStatus(_ context.Context, id int64, from, to workflow.Status, reason string) error {
	if err := r.store.injected("UpdateStatus"); err != nil {
		return err
	}
	o, ok := r.st.orders[id]
	if !ok || o.Status != from {
		return orders.ErrConcurrentUpdate
	}
	o.Status = to
	o.CancelReason = reason
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memOrders) SetPriority(_ context.Context, ids []int64, p orders.Priority) (int64, error) {
	var n int64
	for _, id := range ids {
		if o, ok := r.st.orders[id]; ok {
			o.Priority = p
			n++
		}
	}
	return n, nil
}

func (r *memOrders) SetArchived(_ context.Context, ids []int64, archived bool) (int64, error) {
	var n int64
	for _, id := range ids {
		if o, ok := r.st.orders[id]; ok {
			o.IsArchived = archived
			n++
		}
	}
	return n, nil
}

func (r *memOrders) DeleteOrder(_ context.Context, id int64) error {
	if _, ok := r.st.orders[id]; !ok {
		return orders.ErrOrderNotFound
	}
	delete(r.st.orders, id)
	kept := r.st.payments[:0]
	for _, p := range r.st.payments {
		if p.OrderID != id {
			kept = append(kept, p)
		}
	}
	r.st.payments = kept
	return nil
}

type memLedger memTx

func (l *memLedger) Reserve(_ context.Context, itemID int64, qty float64) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}
	it, ok := l.st.items[itemID]
	if !ok {
		return inventory.ErrItemNotFound
	}
	if it.ReservedQuantity+qty > it.Quantity {
		return inventory.ErrInsufficientStock
	}
	it.ReservedQuantity += qty
	return nil
}

func (l *memLedger) Release(_ context.Context, itemID int64, qty float64) error {
	if qty <= 0 {
		return nil
	}
	if it, ok := l.st.items[itemID]; ok {
		it.ReservedQuantity = floor(it.ReservedQuantity - qty)
	}
	return nil
}

func (l *memLedger) Deduct(_ context.Context, itemID int64, qty float64) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, inventory.ErrInvalidQuantity
	}
	it, ok := l.st.items[itemID]
	if !ok {
		return decimal.Zero, inventory.ErrItemNotFound
	}
	it.Quantity = floor(it.Quantity - qty)
	it.ReservedQuantity = floor(it.ReservedQuantity - qty)
	return it.CostPrice, nil
}

func (l *memLedger) LargestStock(_ context.Context, itemID int64) (*inventory.Stock, error) {
	var candidates []*inventory.Stock
	for _, s := range l.st.stocks {
		if s.ItemID == itemID {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Quantity != candidates[j].Quantity {
			return candidates[i].Quantity > candidates[j].Quantity
		}
		return candidates[i].ID < candidates[j].ID
	})
	best := *candidates[0]
	return &best, nil
}

func (l *memLedger) DeductStock(_ context.Context, stockID int64, qty float64) error {
	if s, ok := l.st.stocks[stockID]; ok {
		s.Quantity = floor(s.Quantity - qty)
	}
	return nil
}

func (l *memLedger) InsertTransaction(_ context.Context, tx inventory.Transaction) (int64, error) {
	if err := l.store.injected("InsertTransaction"); err != nil {
		return 0, err
	}
	tx.ID = l.st.id()
	tx.CreatedAt = time.Now().UTC()
	l.st.transactions = append(l.st.transactions, tx)
	return tx.ID, nil
}

type memPayments memTx

func (r *memPayments) Insert(_ context.Context, p payments.Payment) (int64, error) {
	if err := r.store.injected("InsertPayment"); err != nil {
		return 0, err
	}
	p.ID = r.st.id()
	p.CreatedAt = time.Now().UTC()
	r.st.payments = append(r.st.payments, p)
	return p.ID, nil
}

func (r *memPayments) ListByOrder(_ context.Context, orderID int64) ([]payments.Payment, error) {
	var out []payments.Payment
	for _, p := range r.st.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func floor(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
