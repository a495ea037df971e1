package reservation_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-orders/internal/inventory"
	"github.com/odyssey-erp/odyssey-orders/internal/reservation"
	"github.com/odyssey-erp/odyssey-orders/internal/storetest"
)

func ptr(v int64) *int64 { return &v }

var ref = reservation.OrderRef{ID: 42, Number: "ORD-26-1000", ActorID: 7}

func TestReserveRejectsOverCommit(t *testing.T) {
	store := storetest.New()
	item := store.AddItem(10, 8, decimal.NewFromInt(4))
	c := reservation.NewCoordinator(nil)

	err := store.Ledger(context.Background(), func(ctx context.Context, l inventory.TxLedger) error {
		return c.Reserve(ctx, l, ref, []reservation.Line{{InventoryItemID: ptr(item), Quantity: 3}})
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	require.InDelta(t, 8, store.Item(item).ReservedQuantity, 0.0001)

	err = store.Ledger(context.Background(), func(ctx context.Context, l inventory.TxLedger) error {
		return c.Reserve(ctx, l, ref, []reservation.Line{{InventoryItemID: ptr(item), Quantity: 2}})
	})
	require.NoError(t, err)
	require.InDelta(t, 10, store.Item(item).ReservedQuantity, 0.0001)
}

func TestReserveUnknownItem(t *testing.T) {
	store := storetest.New()
	c := reservation.NewCoordinator(nil)

	err := store.Ledger(context.Background(), func(ctx context.Context, l inventory.TxLedger) error {
		return c.Reserve(ctx, l, ref, []reservation.Line{{InventoryItemID: ptr(999), Quantity: 1}})
	})
	require.ErrorIs(t, err, inventory.ErrItemNotFound)
}

func TestReservePartialFailureRollsBack(t *testing.T) {
	store := storetest.New()
	first := store.AddItem(5, 0, decimal.Zero)
	second := store.AddItem(1, 0, decimal.Zero)
	c := reservation.NewCoordinator(nil)

	err := store.Ledger(context.Background(), func(ctx context.Context, l inventory.TxLedger) error {
		return c.Reserve(ctx, l, ref, []reservation.Line{
			{InventoryItemID: ptr(first), Quantity: 2},
			{InventoryItemID: ptr(second), Quantity: 2},
		})
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	require.Zero(t, store.Item(first).ReservedQuantity)
	require.Zero(t, store.Item(second).ReservedQuantity)
}

func TestReleaseIsIdempotent(t *testing.T) {
	store := storetest.New()
	item := store.AddItem(10, 3, decimal.Zero)
	c := reservation.NewCoordinator(nil)
	lines := []reservation.Line{{InventoryItemID: ptr(item), Quantity: 3}, {Quantity: 4}}

	for i := 0; i < 2; i++ {
		err := store.Ledger(context.Background(), func(ctx context.Context, l inventory.TxLedger) error {
			return c.Release(ctx, l, ref, lines)
		})
		require.NoError(t, err)
		require.Zero(t, store.Item(item).ReservedQuantity)
		require.InDelta(t, 10, store.Item(item).Quantity, 0.0001)
	}
}

func TestDeductUsesLargestLocation(t *testing.T) {
	store := storetest.New()
	cost := decimal.RequireFromString("2.75")
	item := store.AddItem(20, 5, cost)
	small := store.AddStock(item, "A-1", 4)
	large := store.AddStock(item, "B-2", 12)
	c := reservation.NewCoordinator(nil)

	var recorded []inventory.Transaction
	err := store.Ledger(context.Background(), func(ctx context.Context, l inventory.TxLedger) error {
		var err error
		recorded, err = c.Deduct(ctx, l, ref, []reservation.Line{{InventoryItemID: ptr(item), Quantity: 5}})
		return err
	})
	require.NoError(t, err)

	got := store.Item(item)
	require.InDelta(t, 15, got.Quantity, 0.0001)
	require.Zero(t, got.ReservedQuantity)
	require.InDelta(t, 4, store.Stock(small).Quantity, 0.0001)
	require.InDelta(t, 7, store.Stock(large).Quantity, 0.0001)

	require.Len(t, recorded, 1)
	txs := store.Transactions()
	require.Len(t, txs, 1)
	require.Equal(t, inventory.TransactionTypeOut, txs[0].Type)
	require.InDelta(t, -5, txs[0].ChangeAmount, 0.0001)
	require.Equal(t, "B-2", txs[0].Location)
	require.Equal(t, "fulfillment of order #ORD-26-1000", txs[0].Reason)
	require.True(t, txs[0].CostPrice.Equal(cost))
	require.Equal(t, int64(42), txs[0].OrderID)
}

func TestDeductShortLocationFloorsAtZero(t *testing.T) {
	store := storetest.New()
	item := store.AddItem(3, 3, decimal.Zero)
	stock := store.AddStock(item, "C-3", 2)
	c := reservation.NewCoordinator(nil)

	err := store.Ledger(context.Background(), func(ctx context.Context, l inventory.TxLedger) error {
		_, err := c.Deduct(ctx, l, ref, []reservation.Line{{InventoryItemID: ptr(item), Quantity: 3}})
		return err
	})
	require.NoError(t, err)
	require.Zero(t, store.Stock(stock).Quantity)
	require.Zero(t, store.Item(item).Quantity)
}

func TestDeductWithoutLocation(t *testing.T) {
	store := storetest.New()
	item := store.AddItem(6, 2, decimal.Zero)
	c := reservation.NewCoordinator(nil)

	err := store.Ledger(context.Background(), func(ctx context.Context, l inventory.TxLedger) error {
		_, err := c.Deduct(ctx, l, ref, []reservation.Line{{InventoryItemID: ptr(item), Quantity: 2}})
		return err
	})
	require.NoError(t, err)
	txs := store.Transactions()
	require.Len(t, txs, 1)
	require.Empty(t, txs[0].Location)
}

type recordingLedger struct {
	inventory.TxLedger
	calls []string
}

func (l *recordingLedger) Reserve(_ context.Context, itemID int64, qty float64) error {
	l.calls = append(l.calls, fmt.Sprintf("reserve %d:%g", itemID, qty))
	return nil
}

func (l *recordingLedger) Release(_ context.Context, itemID int64, qty float64) error {
	l.calls = append(l.calls, fmt.Sprintf("release %d:%g", itemID, qty))
	return nil
}

func (l *recordingLedger) Deduct(_ context.Context, itemID int64, qty float64) (decimal.Decimal, error) {
	l.calls = append(l.calls, fmt.Sprintf("deduct %d:%g", itemID, qty))
	return decimal.Zero, nil
}

func (l *recordingLedger) LargestStock(context.Context, int64) (*inventory.Stock, error) {
	return nil, nil
}

func (l *recordingLedger) InsertTransaction(_ context.Context, tx inventory.Transaction) (int64, error) {
	l.calls = append(l.calls, fmt.Sprintf("record %d:%g", tx.ItemID, tx.ChangeAmount))
	return int64(len(l.calls)), nil
}

func TestMovementsMergedAndSortedByItem(t *testing.T) {
	c := reservation.NewCoordinator(nil)
	lines := []reservation.Line{
		{InventoryItemID: ptr(9), Quantity: 1},
		{Quantity: 5},
		{InventoryItemID: ptr(3), Quantity: 2},
		{InventoryItemID: ptr(9), Quantity: 3},
	}
	ctx := context.Background()

	l := &recordingLedger{}
	require.NoError(t, c.Reserve(ctx, l, ref, lines))
	require.Equal(t, []string{"reserve 3:2", "reserve 9:4"}, l.calls)

	l = &recordingLedger{}
	require.NoError(t, c.Release(ctx, l, ref, lines))
	require.Equal(t, []string{"release 3:2", "release 9:4"}, l.calls)

	l = &recordingLedger{}
	recorded, err := c.Deduct(ctx, l, ref, lines)
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	require.Equal(t, []string{"deduct 3:2", "record 3:-2", "deduct 9:4", "record 9:-4"}, l.calls)
}

func TestReserveDuplicateLinesCheckedAsOneAmount(t *testing.T) {
	store := storetest.New()
	item := store.AddItem(5, 0, decimal.Zero)
	c := reservation.NewCoordinator(nil)

	err := store.Ledger(context.Background(), func(ctx context.Context, l inventory.TxLedger) error {
		return c.Reserve(ctx, l, ref, []reservation.Line{
			{InventoryItemID: ptr(item), Quantity: 3},
			{InventoryItemID: ptr(item), Quantity: 3},
		})
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	require.Zero(t, store.Item(item).ReservedQuantity)
}
