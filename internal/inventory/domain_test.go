package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

func TestNewFulfillment(t *testing.T) {
	cost := decimal.RequireFromString("12.50")
	tx := NewFulfillment(7, 5, cost, &Stock{ID: 3, ItemID: 7, Location: "A-1", Quantity: 9}, 11, "ORD-26-1001", 2)

	require.Equal(t, TransactionTypeOut, tx.Type)
	require.InDelta(t, -5, tx.ChangeAmount, 0.0001)
	require.Equal(t, "fulfillment of order #ORD-26-1001", tx.Reason)
	require.Equal(t, "A-1", tx.Location)
	require.True(t, tx.CostPrice.Equal(cost))
	require.Equal(t, int64(11), tx.OrderID)

	noLocation := NewFulfillment(7, 1, cost, nil, 11, "ORD-26-1001", 2)
	require.Empty(t, noLocation.Location)
}

func TestErrorKinds(t *testing.T) {
	require.Equal(t, shared.KindBusiness, shared.KindOf(ErrInsufficientStock))
	require.Equal(t, shared.KindNotFound, shared.KindOf(ErrItemNotFound))
	require.InDelta(t, 2, Item{Quantity: 10, ReservedQuantity: 8}.Available(), 0.0001)
}
