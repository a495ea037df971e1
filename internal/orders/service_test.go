package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-orders/internal/events"
	"github.com/odyssey-erp/odyssey-orders/internal/orders"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
	"github.com/odyssey-erp/odyssey-orders/internal/storetest"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

type recorder struct {
	mu            sync.Mutex
	audits        []shared.AuditLog
	hooks         []workflow.Status
	events        []events.Event
	reported      []string
	automationErr error
}

func (r *recorder) Record(_ context.Context, log shared.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, log)
	return nil
}

func (r *recorder) StatusChanged(_ context.Context, _ int64, status workflow.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, status)
	return r.automationErr
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Report(_ context.Context, op string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported = append(r.reported, op)
}

func (r *recorder) eventTypes() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store *storetest.Store
	svc   *orders.Service
	rec   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storetest.New()
	rec := &recorder{}
	svc := orders.NewService(orders.Dependencies{
		Store:      store,
		Audit:      rec,
		Errors:     rec,
		Automation: rec,
		Events:     rec,
	}, orders.ServiceConfig{})
	return &fixture{store: store, svc: svc, rec: rec}
}

func as(role shared.Role, dept string) context.Context {
	return shared.ContextWithActor(context.Background(), shared.Actor{ID: 7, Name: "tester", Role: role, Department: dept})
}

func admin() context.Context { return as(shared.RoleAdmin, "") }

func ptr(v int64) *int64 { return &v }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// createOrder creates an order requesting qty of a fresh item with 10 on
// hand, priced at 100 per unit.
func (f *fixture) createOrder(t *testing.T, qty float64) (*orders.Order, int64) {
	t.Helper()
	client := f.store.AddClient()
	item := f.store.AddItem(10, 0, money("40"))
	order, err := f.svc.CreateOrder(admin(), orders.CreateInput{
		ClientID: client,
		Items:    []orders.ItemInput{{InventoryItemID: ptr(item), Quantity: qty, Price: money("100"), Description: "banner"}},
	})
	require.NoError(t, err)
	return order, item
}

func (f *fixture) move(t *testing.T, orderID int64, statuses ...string) {
	t.Helper()
	for _, s := range statuses {
		reason := ""
		if s == "cancelled" {
			reason = "client request"
		}
		_, err := f.svc.UpdateStatus(admin(), orderID, s, reason)
		require.NoError(t, err, s)
	}
}

func TestCreateOrderWithPromocode(t *testing.T) {
	f := newFixture(t)
	client := f.store.AddClient()
	item := f.store.AddItem(10, 2, decimal.Zero)
	promo := f.store.AddPromocode(orders.Promocode{Code: "SPRING", DiscountType: orders.DiscountPercentage, Value: money("10"), IsActive: true})

	order, err := f.svc.CreateOrder(admin(), orders.CreateInput{
		ClientID:    client,
		PromocodeID: ptr(promo),
		Items: []orders.ItemInput{
			{InventoryItemID: ptr(item), Quantity: 2, Price: money("400")},
			{Quantity: 1, Price: money("200"), Description: "design work"},
		},
	})
	require.NoError(t, err)
	require.True(t, order.DiscountAmount.Equal(money("100")), order.DiscountAmount.String())
	require.True(t, order.TotalAmount.Equal(money("900")), order.TotalAmount.String())
	require.Equal(t, workflow.StatusNew, order.Status)
	require.Equal(t, orders.PriorityNormal, order.Priority)
	require.Regexp(t, `^ORD-\d{2}-1000$`, order.Number)

	require.Equal(t, 1, f.store.Promocode(promo).UsageCount)
	require.InDelta(t, 4, f.store.Item(item).ReservedQuantity, 0.0001)

	stored := f.store.Order(order.ID)
	require.NotNil(t, stored)
	require.Len(t, stored.Items, 2)
	require.True(t, stored.TotalAmount.Equal(money("900")))
	require.Contains(t, f.rec.eventTypes(), events.OrderCreated)
}

func TestCreateOrderNumbersIncrement(t *testing.T) {
	f := newFixture(t)
	first, _ := f.createOrder(t, 1)
	second, _ := f.createOrder(t, 1)
	require.Regexp(t, `-1000$`, first.Number)
	require.Regexp(t, `-1001$`, second.Number)
}

func TestCreateOrderRollsBackOnInsufficientStock(t *testing.T) {
	f := newFixture(t)
	client := f.store.AddClient()
	plenty := f.store.AddItem(10, 0, decimal.Zero)
	scarce := f.store.AddItem(1, 0, decimal.Zero)
	promo := f.store.AddPromocode(orders.Promocode{Code: "FLAT", DiscountType: orders.DiscountFixed, Value: money("5"), IsActive: true})

	_, err := f.svc.CreateOrder(admin(), orders.CreateInput{
		ClientID:      client,
		PromocodeID:   ptr(promo),
		AdvanceAmount: money("50"),
		PaymentMethod: "cash",
		Items: []orders.ItemInput{
			{InventoryItemID: ptr(plenty), Quantity: 3, Price: money("10")},
			{InventoryItemID: ptr(scarce), Quantity: 2, Price: money("10")},
		},
	})
	require.Error(t, err)
	require.Equal(t, shared.KindBusiness, shared.KindOf(err))
	require.Zero(t, f.store.OrderCount())
	require.Zero(t, f.store.Item(plenty).ReservedQuantity)
	require.Zero(t, f.store.Promocode(promo).UsageCount)
	require.Empty(t, f.rec.eventTypes())
}

func TestCreateOrderWithAdvance(t *testing.T) {
	f := newFixture(t)
	client := f.store.AddClient()
	order, err := f.svc.CreateOrder(admin(), orders.CreateInput{
		ClientID:      client,
		AdvanceAmount: money("300"),
		PaymentMethod: "transfer",
		Items:         []orders.ItemInput{{Quantity: 1, Price: money("1000")}},
	})
	require.NoError(t, err)
	require.True(t, order.PaidAmount.Equal(money("300")))

	entries := f.store.Payments(order.ID)
	require.Len(t, entries, 1)
	require.True(t, entries[0].IsAdvance)

	summary, err := f.svc.Balance(admin(), order.ID)
	require.NoError(t, err)
	require.True(t, summary.Balance.Equal(money("700")), summary.Balance.String())
}

func TestCreateOrderInactivePromocode(t *testing.T) {
	f := newFixture(t)
	client := f.store.AddClient()
	promo := f.store.AddPromocode(orders.Promocode{Code: "OLD", DiscountType: orders.DiscountFixed, Value: money("50"), IsActive: false})

	order, err := f.svc.CreateOrder(admin(), orders.CreateInput{
		ClientID:    client,
		PromocodeID: ptr(promo),
		Items:       []orders.ItemInput{{Quantity: 1, Price: money("80")}},
	})
	require.NoError(t, err)
	require.True(t, order.DiscountAmount.IsZero())
	require.True(t, order.TotalAmount.Equal(money("80")))
	require.Zero(t, f.store.Promocode(promo).UsageCount)

	_, err = f.svc.CreateOrder(admin(), orders.CreateInput{
		ClientID:    client,
		PromocodeID: ptr(999),
		Items:       []orders.ItemInput{{Quantity: 1, Price: money("80")}},
	})
	require.ErrorIs(t, err, orders.ErrPromocodeNotFound)
}

func TestCreateOrderFixedDiscountFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	client := f.store.AddClient()
	promo := f.store.AddPromocode(orders.Promocode{Code: "BIG", DiscountType: orders.DiscountFixed, Value: money("500"), IsActive: true})

	order, err := f.svc.CreateOrder(admin(), orders.CreateInput{
		ClientID:    client,
		PromocodeID: ptr(promo),
		Items:       []orders.ItemInput{{Quantity: 2, Price: money("100")}},
	})
	require.NoError(t, err)
	require.True(t, order.TotalAmount.IsZero())
}

func TestCreateOrderUnknownClient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(admin(), orders.CreateInput{
		ClientID: 404,
		Items:    []orders.ItemInput{{Quantity: 1, Price: money("1")}},
	})
	require.ErrorIs(t, err, orders.ErrClientNotFound)
	require.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestCreateOrderRequiresActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), orders.CreateInput{ClientID: 1})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestStatusPipelineDeductsOnDone(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 3)
	require.InDelta(t, 3, f.store.Item(item).ReservedQuantity, 0.0001)

	f.move(t, order.ID, "design", "production")
	require.InDelta(t, 3, f.store.Item(item).ReservedQuantity, 0.0001)

	change, err := f.svc.UpdateStatus(admin(), order.ID, "done", "")
	require.NoError(t, err)
	require.True(t, change.Changed)
	require.Equal(t, workflow.EffectDeduct, change.Effect)

	got := f.store.Item(item)
	require.InDelta(t, 7, got.Quantity, 0.0001)
	require.Zero(t, got.ReservedQuantity)
	require.Len(t, f.store.Transactions(), 1)
	require.Equal(t, workflow.StatusDone, f.store.Order(order.ID).Status)

	f.rec.mu.Lock()
	hooks := append([]workflow.Status(nil), f.rec.hooks...)
	f.rec.mu.Unlock()
	require.Equal(t, []workflow.Status{workflow.StatusDesign, workflow.StatusProduction, workflow.StatusDone}, hooks)
}

func TestIllegalTransitionsLeaveOrderUntouched(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 2)

	_, err := f.svc.UpdateStatus(admin(), order.ID, "done", "")
	require.ErrorIs(t, err, workflow.ErrIllegalTransition)
	require.Equal(t, workflow.StatusNew, f.store.Order(order.ID).Status)
	require.InDelta(t, 2, f.store.Item(item).ReservedQuantity, 0.0001)

	f.move(t, order.ID, "production", "done")
	for _, target := range []string{"new", "design", "production"} {
		_, err := f.svc.UpdateStatus(admin(), order.ID, target, "")
		require.ErrorIs(t, err, workflow.ErrIllegalTransition, target)
	}
	require.Equal(t, workflow.StatusDone, f.store.Order(order.ID).Status)

	_, err = f.svc.UpdateStatus(admin(), order.ID, "archived", "")
	require.ErrorIs(t, err, workflow.ErrUnknownStatus)
}

func TestSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 2)
	f.rec.mu.Lock()
	audits := len(f.rec.audits)
	f.rec.mu.Unlock()

	change, err := f.svc.UpdateStatus(admin(), order.ID, "new", "")
	require.NoError(t, err)
	require.False(t, change.Changed)
	require.InDelta(t, 2, f.store.Item(item).ReservedQuantity, 0.0001)

	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	require.Len(t, f.rec.audits, audits)
	require.Empty(t, f.rec.hooks)
}

func TestCancelReleasesReservation(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 4)

	_, err := f.svc.UpdateStatus(admin(), order.ID, "cancelled", "  ")
	require.ErrorIs(t, err, orders.ErrCancelReason)
	require.InDelta(t, 4, f.store.Item(item).ReservedQuantity, 0.0001)

	change, err := f.svc.UpdateStatus(admin(), order.ID, "cancelled", "client changed mind")
	require.NoError(t, err)
	require.Equal(t, workflow.EffectRelease, change.Effect)
	require.Zero(t, f.store.Item(item).ReservedQuantity)

	stored := f.store.Order(order.ID)
	require.Equal(t, workflow.StatusCancelled, stored.Status)
	require.Equal(t, "client changed mind", stored.CancelReason)
}

func TestRepeatedCancelWithoutReasonIsNoOp(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 2)
	f.move(t, order.ID, "cancelled")
	f.rec.mu.Lock()
	audits := len(f.rec.audits)
	f.rec.mu.Unlock()

	change, err := f.svc.UpdateStatus(admin(), order.ID, "cancelled", "")
	require.NoError(t, err)
	require.False(t, change.Changed)
	require.Zero(t, f.store.Item(item).ReservedQuantity)
	require.Equal(t, "client request", f.store.Order(order.ID).CancelReason)

	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	require.Len(t, f.rec.audits, audits)
}

func TestCancelFulfilledOrderKeepsStock(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 2)
	f.move(t, order.ID, "production", "done", "shipped")
	before := f.store.Item(item)

	f.move(t, order.ID, "cancelled")
	after := f.store.Item(item)
	require.Equal(t, before.Quantity, after.Quantity)
	require.Equal(t, before.ReservedQuantity, after.ReservedQuantity)
	require.Len(t, f.store.Transactions(), 1)
}

func TestReopenDoesNotReserve(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 3)
	f.move(t, order.ID, "cancelled", "new")
	require.Zero(t, f.store.Item(item).ReservedQuantity)
	require.Empty(t, f.store.Order(order.ID).CancelReason)
}

func TestConcurrentStatusChangeRollsBack(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 3)
	f.store.FailNext("UpdateStatus", orders.ErrConcurrentUpdate)

	_, err := f.svc.UpdateStatus(admin(), order.ID, "cancelled", "duplicate")
	require.ErrorIs(t, err, orders.ErrConcurrentUpdate)
	require.InDelta(t, 3, f.store.Item(item).ReservedQuantity, 0.0001)
	require.Equal(t, workflow.StatusNew, f.store.Order(order.ID).Status)
}

func TestAutomationFailureDoesNotFailChange(t *testing.T) {
	f := newFixture(t)
	order, _ := f.createOrder(t, 1)
	f.rec.automationErr = errors.New("queue unavailable")

	change, err := f.svc.UpdateStatus(admin(), order.ID, "design", "")
	require.NoError(t, err)
	require.True(t, change.Changed)
	require.Equal(t, workflow.StatusDesign, f.store.Order(order.ID).Status)

	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	require.Contains(t, f.rec.reported, "orders.automation")
}

func TestStoreFailureIsReported(t *testing.T) {
	f := newFixture(t)
	order, _ := f.createOrder(t, 1)
	f.store.FailNext("GetOrder", errors.New("connection reset"))

	_, err := f.svc.UpdateStatus(admin(), order.ID, "design", "")
	require.Error(t, err)
	require.Equal(t, shared.KindInternal, shared.KindOf(err))
	require.Equal(t, "internal error", shared.PublicMessage(err))

	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	require.Contains(t, f.rec.reported, "orders.status")
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 5)
	_, err := f.svc.AddPayment(admin(), paymentInput(order.ID, "100", "cash"))
	require.NoError(t, err)

	err = f.svc.DeleteOrder(as(shared.RoleStaff, ""), order.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
	err = f.svc.DeleteOrder(as(shared.RoleManager, ""), order.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.NotNil(t, f.store.Order(order.ID))

	require.NoError(t, f.svc.DeleteOrder(as(shared.RoleManagement, ""), order.ID))
	require.Nil(t, f.store.Order(order.ID))
	require.Zero(t, f.store.Item(item).ReservedQuantity)
	require.Empty(t, f.store.Payments(order.ID))

	err = f.svc.DeleteOrder(admin(), order.ID)
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestDeleteFulfilledOrderDoesNotRelease(t *testing.T) {
	f := newFixture(t)
	order, item := f.createOrder(t, 2)
	f.move(t, order.ID, "production", "done")
	before := f.store.Item(item)

	require.NoError(t, f.svc.DeleteOrder(admin(), order.ID))
	require.Equal(t, before, f.store.Item(item))
	require.Len(t, f.store.Transactions(), 1)
}

func TestSetPriorityIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	a, _ := f.createOrder(t, 1)
	b, _ := f.createOrder(t, 1)

	err := f.svc.SetPriority(admin(), []int64{a.ID, 999}, "high")
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
	require.Equal(t, orders.PriorityNormal, f.store.Order(a.ID).Priority)

	require.NoError(t, f.svc.SetPriority(admin(), []int64{a.ID, b.ID, a.ID}, "HIGH"))
	require.Equal(t, orders.PriorityHigh, f.store.Order(a.ID).Priority)
	require.Equal(t, orders.PriorityHigh, f.store.Order(b.ID).Priority)

	err = f.svc.UpdatePriority(admin(), a.ID, "urgent")
	require.ErrorIs(t, err, orders.ErrInvalidPriority)

	err = f.svc.UpdatePriority(as(shared.RoleStaff, ""), a.ID, "normal")
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestArchiveOrder(t *testing.T) {
	f := newFixture(t)
	order, _ := f.createOrder(t, 1)

	require.NoError(t, f.svc.ArchiveOrder(admin(), order.ID, true))
	require.True(t, f.store.Order(order.ID).IsArchived)
	require.NoError(t, f.svc.ArchiveOrder(admin(), order.ID, false))
	require.False(t, f.store.Order(order.ID).IsArchived)

	err := f.svc.SetArchived(admin(), nil, true)
	require.ErrorIs(t, err, orders.ErrEmptySelection)
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)
	order, _ := f.createOrder(t, 2)

	got, err := f.svc.GetOrder(as(shared.RoleStaff, ""), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.Number, got.Number)
	require.Len(t, got.Items, 1)

	_, err = f.svc.GetOrder(admin(), 12345)
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
	_, err = f.svc.GetOrder(admin(), 0)
	require.ErrorIs(t, err, orders.ErrInvalidOrderID)
}
