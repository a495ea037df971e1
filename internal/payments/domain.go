package payments

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// Method names how money was collected.
type Method string

const (
	MethodCash     Method = "cash"
	MethodCard     Method = "card"
	MethodTransfer Method = "transfer"
)

// ParseMethod validates a payment method.
func ParseMethod(raw string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(raw))); m {
	case MethodCash, MethodCard, MethodTransfer:
		return m, nil
	default:
		return "", ErrUnknownMethod
	}
}

// Payment is a signed ledger entry; negative amounts are refunds.
type Payment struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    Method          `json:"method"`
	IsAdvance bool            `json:"is_advance"`
	Comment   string          `json:"comment,omitempty"`
	CreatedBy int64           `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsRefund reports whether p returns money to the client.
func (p Payment) IsRefund() bool {
	return p.Amount.IsNegative()
}

var (
	// ErrNonPositiveAmount is returned for zero or negative amounts.
	ErrNonPositiveAmount = shared.NewError(shared.KindValidation, "amount must be positive")
	// ErrUnknownMethod is returned for unsupported payment methods.
	ErrUnknownMethod = shared.NewError(shared.KindValidation, "unknown payment method")
	// ErrReasonRequired is returned for refunds without a reason.
	ErrReasonRequired = shared.NewError(shared.KindValidation, "refund reason is required")
)

// PaymentInput describes an incoming payment.
type PaymentInput struct {
	OrderID   int64
	Amount    decimal.Decimal
	Method    string
	IsAdvance bool
	Comment   string
	ActorID   int64
}

// NewPayment validates in and builds a positive ledger entry.
func NewPayment(in PaymentInput) (Payment, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return Payment{}, ErrNonPositiveAmount
	}
	method, err := ParseMethod(in.Method)
	if err != nil {
		return Payment{}, err
	}
	return Payment{
		OrderID:   in.OrderID,
		Amount:    amount,
		Method:    method,
		IsAdvance: in.IsAdvance,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedBy: in.ActorID,
	}, nil
}

// RefundInput describes money returned to the client.
type RefundInput struct {
	OrderID int64
	Amount  decimal.Decimal
	Reason  string
	Method  string
	ActorID int64
}

// NewRefund validates in and builds a negative ledger entry. The method
// defaults to cash.
func NewRefund(in RefundInput) (Payment, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return Payment{}, ErrNonPositiveAmount
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return Payment{}, ErrReasonRequired
	}
	method := MethodCash
	if strings.TrimSpace(in.Method) != "" {
		m, err := ParseMethod(in.Method)
		if err != nil {
			return Payment{}, err
		}
		method = m
	}
	return Payment{
		OrderID:   in.OrderID,
		Amount:    amount.Neg(),
		Method:    method,
		IsAdvance: false,
		Comment:   "Refund: " + reason,
		CreatedBy: in.ActorID,
	}, nil
}

// Summary is the computed balance view of an order.
type Summary struct {
	Total    decimal.Decimal `json:"total"`
	Paid     decimal.Decimal `json:"paid"`
	Balance  decimal.Decimal `json:"balance"`
	Payments []Payment       `json:"payments"`
}

// Balance returns total minus the signed sum of entries.
func Balance(total decimal.Decimal, entries []Payment) Summary {
	paid := decimal.Zero
	for _, p := range entries {
		paid = paid.Add(p.Amount)
	}
	if entries == nil {
		entries = []Payment{}
	}
	return Summary{Total: total, Paid: paid, Balance: total.Sub(paid), Payments: entries}
}
