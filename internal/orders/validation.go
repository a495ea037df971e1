package orders

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/payments"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

// MaxSelection bounds the number of orders accepted by batch operations.
const MaxSelection = 200

// QuantityScale is the number of decimal places stored for line quantities.
const QuantityScale = 3

// CreateInput is the raw request to create an order.
type CreateInput struct {
	ClientID      int64
	Priority      string
	IsUrgent      bool
	AdvanceAmount decimal.Decimal
	PromocodeID   *int64
	PaymentMethod string
	Deadline      *time.Time
	Items         []ItemInput
}

// ItemInput is a requested order line.
type ItemInput struct {
	InventoryItemID *int64
	Quantity        float64
	Price           decimal.Decimal
	Description     string
}

// CreateCommand is a validated CreateInput.
type CreateCommand struct {
	ClientID      int64
	Priority      Priority
	IsUrgent      bool
	AdvanceAmount decimal.Decimal
	PromocodeID   *int64
	PaymentMethod payments.Method
	Deadline      *time.Time
	Items         []Item
}

// ValidateCreate checks in and returns the command to execute.
func ValidateCreate(in CreateInput) (CreateCommand, error) {
	if in.ClientID <= 0 {
		return CreateCommand{}, ErrInvalidClientID
	}
	priority, err := ParsePriority(in.Priority)
	if err != nil {
		return CreateCommand{}, err
	}
	if len(in.Items) == 0 {
		return CreateCommand{}, ErrEmptyItems
	}
	if in.AdvanceAmount.IsNegative() {
		return CreateCommand{}, ErrInvalidAdvance
	}
	var method payments.Method
	if strings.TrimSpace(in.PaymentMethod) != "" || in.AdvanceAmount.IsPositive() {
		method, err = payments.ParseMethod(in.PaymentMethod)
		if err != nil {
			return CreateCommand{}, err
		}
	}
	if in.PromocodeID != nil && *in.PromocodeID <= 0 {
		return CreateCommand{}, ErrPromocodeNotFound
	}
	items := make([]Item, 0, len(in.Items))
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			return CreateCommand{}, fmt.Errorf("item %d: %w", i+1, ErrInvalidQuantity)
		}
		if decimal.NewFromFloat(it.Quantity).Exponent() < -QuantityScale {
			return CreateCommand{}, fmt.Errorf("item %d: %w", i+1, ErrQuantityPrecision)
		}
		if it.Price.IsNegative() {
			return CreateCommand{}, fmt.Errorf("item %d: %w", i+1, ErrInvalidPrice)
		}
		var ref *int64
		if it.InventoryItemID != nil && *it.InventoryItemID > 0 {
			id := *it.InventoryItemID
			ref = &id
		}
		items = append(items, Item{
			InventoryItemID: ref,
			Quantity:        it.Quantity,
			Price:           it.Price,
			Description:     strings.TrimSpace(it.Description),
		})
	}
	return CreateCommand{
		ClientID:      in.ClientID,
		Priority:      priority,
		IsUrgent:      in.IsUrgent,
		AdvanceAmount: in.AdvanceAmount.Round(2),
		PromocodeID:   in.PromocodeID,
		PaymentMethod: method,
		Deadline:      in.Deadline,
		Items:         items,
	}, nil
}

// StatusCommand is a validated status change.
type StatusCommand struct {
	OrderID int64
	Status  workflow.Status
	Reason  string
}

// ValidateStatusChange checks a requested status change. The cancellation
// reason is not enforced here since a repeated cancel is a no-op; see
// StatusCommand.Check.
func ValidateStatusChange(orderID int64, status, reason string) (StatusCommand, error) {
	if orderID <= 0 {
		return StatusCommand{}, ErrInvalidOrderID
	}
	target, reason, err := parseStatusTarget(status, reason)
	if err != nil {
		return StatusCommand{}, err
	}
	return StatusCommand{OrderID: orderID, Status: target, Reason: reason}, nil
}

// Check enforces the cancellation reason for a real transition to
// cancelled.
func (c StatusCommand) Check() error {
	if c.Status == workflow.StatusCancelled && c.Reason == "" {
		return ErrCancelReason
	}
	return nil
}

// ValidateStatusTarget parses the target status and normalizes the reason:
// required for cancellation, cleared otherwise.
func ValidateStatusTarget(status, reason string) (workflow.Status, string, error) {
	target, reason, err := parseStatusTarget(status, reason)
	if err != nil {
		return 0, "", err
	}
	cmd := StatusCommand{Status: target, Reason: reason}
	if err := cmd.Check(); err != nil {
		return 0, "", err
	}
	return target, reason, nil
}

func parseStatusTarget(status, reason string) (workflow.Status, string, error) {
	target, err := workflow.ParseStatus(status)
	if err != nil {
		return 0, "", err
	}
	reason = strings.TrimSpace(reason)
	if target != workflow.StatusCancelled {
		reason = ""
	}
	return target, reason, nil
}

// ValidateSelection returns ids with duplicates removed, preserving order.
func ValidateSelection(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidOrderID, id)
		}
		if slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	if len(out) > MaxSelection {
		return nil, ErrSelectionTooLarge
	}
	return out, nil
}
