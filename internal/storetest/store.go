// Package storetest provides an in-memory orders.Store for tests. Each
// WithTx call works on a snapshot that is discarded when fn fails, so
// rollback behaviour can be asserted without a database.
package storetest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/inventory"
	"github.com/odyssey-erp/odyssey-orders/internal/orders"
	"github.com/odyssey-erp/odyssey-orders/internal/payments"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

type state struct {
	nextID       int64
	clients      map[int64]bool
	orders       map[int64]*orders.Order
	orderSeq     []int64
	items        map[int64]*inventory.Item
	stocks       map[int64]*inventory.Stock
	transactions []inventory.Transaction
	payments     []payments.Payment
	promos       map[int64]*orders.Promocode
}

func newState() *state {
	return &state{
		clients: make(map[int64]bool),
		orders:  make(map[int64]*orders.Order),
		items:   make(map[int64]*inventory.Item),
		stocks:  make(map[int64]*inventory.Stock),
		promos:  make(map[int64]*orders.Promocode),
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *state) clone() *state {
	c := &state{
		nextID:       s.nextID,
		clients:      make(map[int64]bool, len(s.clients)),
		orders:       make(map[int64]*orders.Order, len(s.orders)),
		orderSeq:     slices.Clone(s.orderSeq),
		items:        make(map[int64]*inventory.Item, len(s.items)),
		stocks:       make(map[int64]*inventory.Stock, len(s.stocks)),
		transactions: slices.Clone(s.transactions),
		payments:     slices.Clone(s.payments),
		promos:       make(map[int64]*orders.Promocode, len(s.promos)),
	}
	for k, v := range s.clients {
		c.clients[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range s.items {
		item := *v
		c.items[k] = &item
	}
	for k, v := range s.stocks {
		stock := *v
		c.stocks[k] = &stock
	}
	for k, v := range s.promos {
		promo := *v
		c.promos[k] = &promo
	}
	return c
}

func copyOrder(o *orders.Order) *orders.Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	return &c
}

// Store is an in-memory orders.Store. Transactions are serialized.
type Store struct {
	mu    sync.Mutex
	st    *state
	fails map[string][]error
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), fails: make(map[string][]error)}
}

// FailNext queues err to be returned by the next call of the named
// repository method, e.g. "InsertOrder".
func (s *Store) FailNext(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[method] = append(s.fails[method], err)
}

func (s *Store) injected(method string) error {
	queue := s.fails[method]
	if len(queue) == 0 {
		return nil
	}
	s.fails[method] = queue[1:]
	return queue[0]
}

// WithTx runs fn against a working copy and commits it only on success.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, orders.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	tx := &memTx{store: s, st: work}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.st = work
	return nil
}

// AddClient registers a client and returns its id.
func (s *Store) AddClient() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.st.id()
	s.st.clients[id] = true
	return id
}

// AddItem registers an inventory item.
func (s *Store) AddItem(quantity, reserved float64, cost decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.st.id()
	s.st.items[id] = &inventory.Item{ID: id, Quantity: quantity, ReservedQuantity: reserved, CostPrice: cost, UpdatedAt: time.Now()}
	return id
}

// AddStock registers a location balance for an item.
func (s *Store) AddStock(itemID int64, location string, quantity float64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.st.id()
	s.st.stocks[id] = &inventory.Stock{ID: id, ItemID: itemID, Location: location, Quantity: quantity}
	return id
}

// AddPromocode registers a promocode.
func (s *Store) AddPromocode(p orders.Promocode) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.st.id()
	s.st.promos[p.ID] = &p
	return p.ID
}

// SetStatus forces an order into status without side effects.
func (s *Store) SetStatus(orderID int64, status workflow.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.st.orders[orderID]; ok {
		o.Status = status
	}
}

// Item returns a copy of the inventory item.
func (s *Store) Item(id int64) inventory.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.st.items[id]; ok {
		return *it
	}
	return inventory.Item{}
}

// Stock returns a copy of the location balance.
func (s *Store) Stock(id int64) inventory.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.st.stocks[id]; ok {
		return *st
	}
	return inventory.Stock{}
}

// Order returns a copy of the order, or nil.
func (s *Store) Order(id int64) *orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.st.orders[id]; ok {
		return copyOrder(o)
	}
	return nil
}

// OrderCount returns the number of stored orders.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders)
}

// Promocode returns a copy of the promocode.
func (s *Store) Promocode(id int64) orders.Promocode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.st.promos[id]; ok {
		return *p
	}
	return orders.Promocode{}
}

// Transactions returns the recorded inventory movements.
func (s *Store) Transactions() []inventory.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.transactions)
}

// Payments returns the ledger entries of an order.
func (s *Store) Payments(orderID int64) []payments.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []payments.Payment
	for _, p := range s.st.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out
}

// Ledger returns a TxLedger bound to a working copy that is committed when
// fn succeeds, for exercising inventory primitives directly.
func (s *Store) Ledger(ctx context.Context, fn func(context.Context, inventory.TxLedger) error) error {
	return s.WithTx(ctx, func(ctx context.Context, tx orders.Tx) error {
		return fn(ctx, tx.Inventory())
	})
}
