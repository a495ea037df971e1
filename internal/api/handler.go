// Package api exposes the order operations over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-orders/internal/bulk"
	"github.com/odyssey-erp/odyssey-orders/internal/orders"
	"github.com/odyssey-erp/odyssey-orders/internal/payments"
	"github.com/odyssey-erp/odyssey-orders/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-orders/internal/rbac"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// OrderService is the order surface used by the handlers.
type OrderService interface {
	CreateOrder(ctx context.Context, in orders.CreateInput) (*orders.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*orders.Order, error)
	Balance(ctx context.Context, orderID int64) (payments.Summary, error)
	UpdateStatus(ctx context.Context, orderID int64, status, reason string) (orders.StatusChange, error)
	UpdatePriority(ctx context.Context, orderID int64, priority string) error
	ArchiveOrder(ctx context.Context, orderID int64, archive bool) error
	DeleteOrder(ctx context.Context, orderID int64) error
	AddPayment(ctx context.Context, in payments.PaymentInput) (payments.Payment, error)
	Refund(ctx context.Context, in payments.RefundInput) (payments.Payment, error)
}

// BulkService runs operations over a selection.
type BulkService interface {
	UpdateStatus(ctx context.Context, ids []int64, status, reason string) (bulk.Report, error)
	UpdatePriority(ctx context.Context, ids []int64, priority string) (bulk.Report, error)
	Archive(ctx context.Context, ids []int64, archive bool) (bulk.Report, error)
	Delete(ctx context.Context, ids []int64) (bulk.Report, error)
}

// AmountFormatter renders money for success messages.
type AmountFormatter interface {
	FormatAmount(ctx context.Context, amount decimal.Decimal) string
}

// IdempotencyStore remembers request keys per module.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// IdempotencyHeader carries the client supplied request key.
const IdempotencyHeader = "Idempotency-Key"

// Config groups the handler dependencies. Branding, Idempotency and RBAC are
// optional.
type Config struct {
	Orders      OrderService
	Bulk        BulkService
	Branding    AmountFormatter
	Idempotency IdempotencyStore
	RBAC        *rbac.Middleware
	Logger      *slog.Logger
}

// Handler serves order routes.
type Handler struct {
	orders   OrderService
	bulk     BulkService
	branding AmountFormatter
	idem     IdempotencyStore
	rbac     *rbac.Middleware
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		orders:   cfg.Orders,
		bulk:     cfg.Bulk,
		branding: cfg.Branding,
		idem:     cfg.Idempotency,
		rbac:     cfg.RBAC,
		validate: newValidator(),
		logger:   logger,
	}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.require(shared.PermOrderCreate)).Post("/", h.createOrder)
	r.Route("/bulk", func(r chi.Router) {
		r.Use(h.require(shared.PermOrderBulk))
		r.Post("/status", h.bulkStatus)
		r.Post("/priority", h.bulkPriority)
		r.Post("/archive", h.bulkArchive)
		r.Post("/delete", h.bulkDelete)
	})
	r.Route("/{id}", func(r chi.Router) {
		r.With(h.require(shared.PermOrderView)).Get("/", h.getOrder)
		r.With(h.require(shared.PermOrderView)).Get("/balance", h.balance)
		r.With(h.require(shared.PermOrderStatus)).Patch("/status", h.updateStatus)
		r.With(h.require(shared.PermOrderPriority)).Patch("/priority", h.updatePriority)
		r.With(h.require(shared.PermOrderArchive)).Patch("/archive", h.archive)
		r.With(h.require(shared.PermOrderPayment)).Post("/payments", h.addPayment)
		r.With(h.require(shared.PermOrderRefund)).Post("/refunds", h.refund)
		r.With(h.require(shared.PermOrderDelete)).Delete("/", h.deleteOrder)
	})
}

func (h *Handler) require(perm string) func(http.Handler) http.Handler {
	if h.rbac == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.rbac.RequireAny(perm)
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return shared.Validation("invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, orders.ErrInvalidOrderID
	}
	return id, nil
}

func (h *Handler) money(ctx context.Context, amount decimal.Decimal) string {
	if h.branding == nil {
		return amount.StringFixed(2)
	}
	return h.branding.FormatAmount(ctx, amount)
}

// idempotent runs fn at most once per key. The key is released when fn
// fails so the client may retry.
func (h *Handler) idempotent(r *http.Request, module string, fn func() error) error {
	key := r.Header.Get(IdempotencyHeader)
	if key == "" || h.idem == nil {
		return fn()
	}
	if err := h.idem.CheckAndInsert(r.Context(), key, module); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if delErr := h.idem.Delete(r.Context(), key, module); delErr != nil {
			h.logger.Warn("release idempotency key", slog.String("module", module), slog.Any("error", delErr))
		}
		return err
	}
	return nil
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var order *orders.Order
	err := h.idempotent(r, "orders.create", func() error {
		var err error
		order, err = h.orders.CreateOrder(r.Context(), req.input())
		return err
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, httpx.Result{
		Success: true,
		Message: fmt.Sprintf("Order %s created, total %s", order.Number, h.money(r.Context(), order.TotalAmount)),
		Data:    order,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", order)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.orders.Balance(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, fmt.Sprintf("Balance due %s", h.money(r.Context(), summary.Balance)), summary)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req statusRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	change, err := h.orders.UpdateStatus(r.Context(), id, req.Status, req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	msg := fmt.Sprintf("Order %s moved to %s", change.Number, change.To)
	if !change.Changed {
		msg = fmt.Sprintf("Order %s is already %s", change.Number, change.To)
	}
	httpx.OK(w, msg, map[string]any{"from": change.From, "to": change.To, "changed": change.Changed})
}

func (h *Handler) updatePriority(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req priorityRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.orders.UpdatePriority(r.Context(), id, req.Priority); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Priority updated", nil)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req archiveRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.orders.ArchiveOrder(r.Context(), id, *req.Archived); err != nil {
		httpx.RespondError(w, err)
		return
	}
	msg := "Order archived"
	if !*req.Archived {
		msg = "Order restored"
	}
	httpx.OK(w, msg, nil)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Order deleted", nil)
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req paymentRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var payment payments.Payment
	err = h.idempotent(r, "orders.payment", func() error {
		var err error
		payment, err = h.orders.AddPayment(r.Context(), req.input(id))
		return err
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, fmt.Sprintf("Payment of %s recorded", h.money(r.Context(), payment.Amount)), payment)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req refundRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var refund payments.Payment
	err = h.idempotent(r, "orders.refund", func() error {
		var err error
		refund, err = h.orders.Refund(r.Context(), req.input(id))
		return err
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, fmt.Sprintf("Refund of %s recorded", h.money(r.Context(), refund.Amount.Abs())), refund)
}
