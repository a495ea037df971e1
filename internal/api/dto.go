package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/orders"
	"github.com/odyssey-erp/odyssey-orders/internal/payments"
)

type createOrderRequest struct {
	ClientID      int64           `json:"client_id" validate:"required,gt=0"`
	Priority      string          `json:"priority" validate:"max=16"`
	IsUrgent      bool            `json:"is_urgent"`
	AdvanceAmount decimal.Decimal `json:"advance_amount"`
	PromocodeID   *int64          `json:"promocode_id" validate:"omitempty,gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"max=16"`
	Deadline      *time.Time      `json:"deadline"`
	Items         []itemRequest   `json:"items" validate:"required,min=1,dive"`
}

type itemRequest struct {
	InventoryItemID *int64          `json:"inventory_item_id" validate:"omitempty,gt=0"`
	Quantity        float64         `json:"quantity" validate:"gt=0"`
	Price           decimal.Decimal `json:"price"`
	Description     string          `json:"description" validate:"max=500"`
}

func (r createOrderRequest) input() orders.CreateInput {
	in := orders.CreateInput{
		ClientID:      r.ClientID,
		Priority:      r.Priority,
		IsUrgent:      r.IsUrgent,
		AdvanceAmount: r.AdvanceAmount,
		PromocodeID:   r.PromocodeID,
		PaymentMethod: r.PaymentMethod,
		Deadline:      r.Deadline,
		Items:         make([]orders.ItemInput, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, orders.ItemInput{
			InventoryItemID: it.InventoryItemID,
			Quantity:        it.Quantity,
			Price:           it.Price,
			Description:     it.Description,
		})
	}
	return in
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

type priorityRequest struct {
	Priority string `json:"priority" validate:"required"`
}

type archiveRequest struct {
	Archived *bool `json:"archived" validate:"required"`
}

type paymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required"`
	IsAdvance bool            `json:"is_advance"`
	Comment   string          `json:"comment" validate:"max=500"`
}

func (r paymentRequest) input(orderID int64) payments.PaymentInput {
	return payments.PaymentInput{OrderID: orderID, Amount: r.Amount, Method: r.Method, IsAdvance: r.IsAdvance, Comment: r.Comment}
}

type refundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"max=500"`
	Method string          `json:"method"`
}

func (r refundRequest) input(orderID int64) payments.RefundInput {
	return payments.RefundInput{OrderID: orderID, Amount: r.Amount, Reason: r.Reason, Method: r.Method}
}

type bulkStatusRequest struct {
	IDs    []int64 `json:"ids" validate:"required"`
	Status string  `json:"status" validate:"required"`
	Reason string  `json:"reason" validate:"max=500"`
}

type bulkPriorityRequest struct {
	IDs      []int64 `json:"ids" validate:"required"`
	Priority string  `json:"priority" validate:"required"`
}

type bulkArchiveRequest struct {
	IDs      []int64 `json:"ids" validate:"required"`
	Archived bool    `json:"archived"`
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required"`
}
