package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/reservation"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

// Priority ranks orders in the production queue.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a priority value. Empty means normal.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PriorityNormal, nil
	case PriorityNormal, PriorityHigh:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

// Order is the aggregate root for line items and payments.
type Order struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	Status         workflow.Status `json:"status"`
	Priority       Priority        `json:"priority"`
	IsUrgent       bool            `json:"is_urgent"`
	ClientID       int64           `json:"client_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PromocodeID    *int64          `json:"promocode_id,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
	CancelReason   string          `json:"cancel_reason,omitempty"`
	IsArchived     bool            `json:"is_archived"`
	CreatedBy      int64           `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []Item          `json:"items"`
}

// Item is an order line.
type Item struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	InventoryItemID *int64          `json:"inventory_item_id,omitempty"`
	Quantity        float64         `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Description     string          `json:"description"`
}

// LineTotal returns quantity x price.
func (i Item) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Quantity).Mul(i.Price)
}

// Subtotal sums line totals before any discount.
func Subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

// Lines maps order items to reservation lines.
func (o *Order) Lines() []reservation.Line {
	lines := make([]reservation.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, reservation.Line{InventoryItemID: it.InventoryItemID, Quantity: it.Quantity})
	}
	return lines
}

// Ref identifies the order for ledger movements made by actorID.
func (o *Order) Ref(actorID int64) reservation.OrderRef {
	return reservation.OrderRef{ID: o.ID, Number: o.Number, ActorID: actorID}
}

// DiscountType selects how a promocode value is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Promocode is a promotional discount consumed at creation time.
type Promocode struct {
	ID           int64
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	IsActive     bool
	UsageCount   int
}

// Discount returns the amount taken off total.
func (p Promocode) Discount(total decimal.Decimal) decimal.Decimal {
	switch p.DiscountType {
	case DiscountPercentage:
		return total.Mul(p.Value).Div(decimal.NewFromInt(100)).Round(2)
	case DiscountFixed:
		return p.Value.Round(2)
	default:
		return decimal.Zero
	}
}

// ApplyDiscount returns the discount and the final total, floored at zero.
func ApplyDiscount(total decimal.Decimal, promo *Promocode) (discount, final decimal.Decimal) {
	if promo == nil {
		return decimal.Zero, total
	}
	discount = promo.Discount(total)
	final = total.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return discount, final
}
