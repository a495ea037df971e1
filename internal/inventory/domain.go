package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// TransactionType enumerates supported inventory movements.
type TransactionType string

const (
	// TransactionTypeOut represents a physical removal.
	TransactionTypeOut TransactionType = "out"
)

// Item is a stocked inventory item. ReservedQuantity never exceeds Quantity.
type Item struct {
	ID               int64
	SKU              string
	Name             string
	Quantity         float64
	ReservedQuantity float64
	CostPrice        decimal.Decimal
	UpdatedAt        time.Time
}

// Available returns the unreserved on-hand quantity.
func (i Item) Available() float64 {
	return i.Quantity - i.ReservedQuantity
}

// Stock is the per-location balance of an item.
type Stock struct {
	ID       int64
	ItemID   int64
	Location string
	Quantity float64
}

// Transaction is an immutable record of a physical stock movement.
type Transaction struct {
	ID           int64
	ItemID       int64
	OrderID      int64
	Type         TransactionType
	ChangeAmount float64
	Reason       string
	Location     string
	CostPrice    decimal.Decimal
	CreatedBy    int64
	CreatedAt    time.Time
}

var (
	// ErrInsufficientStock is returned when a reservation would exceed on-hand stock.
	ErrInsufficientStock = shared.NewError(shared.KindBusiness, "insufficient stock")
	// ErrItemNotFound is returned for unknown inventory items.
	ErrItemNotFound = shared.NewError(shared.KindNotFound, "inventory item not found")
	// ErrInvalidQuantity is returned for non-positive movement quantities.
	ErrInvalidQuantity = shared.NewError(shared.KindValidation, "quantity must be positive")
)

// FulfillmentReason is the reason recorded on deductions for an order.
func FulfillmentReason(orderNumber string) string {
	return fmt.Sprintf("fulfillment of order #%s", orderNumber)
}

// NewFulfillment builds the outbound transaction recorded when qty of item
// leaves inventory from stock (which may be nil) for an order.
func NewFulfillment(itemID int64, qty float64, cost decimal.Decimal, stock *Stock, orderID int64, orderNumber string, actorID int64) Transaction {
	tx := Transaction{
		ItemID:       itemID,
		OrderID:      orderID,
		Type:         TransactionTypeOut,
		ChangeAmount: -qty,
		Reason:       FulfillmentReason(orderNumber),
		CostPrice:    cost,
		CreatedBy:    actorID,
	}
	if stock != nil {
		tx.Location = stock.Location
	}
	return tx
}
