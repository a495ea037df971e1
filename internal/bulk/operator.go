// Package bulk applies order operations across a selection of orders.
package bulk

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-orders/internal/orders"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// OrderOperations is the single-order surface the operator drives.
type OrderOperations interface {
	UpdateStatus(ctx context.Context, orderID int64, status, reason string) (orders.StatusChange, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	SetPriority(ctx context.Context, ids []int64, priority string) error
	SetArchived(ctx context.Context, ids []int64, archive bool) error
}

// Authorizer checks bulk permissions up front.
type Authorizer interface {
	Can(actor shared.Actor, perm string) bool
}

// Failure records why one order in a batch was not processed.
type Failure struct {
	OrderID int64  `json:"order_id"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

// Report summarises a bulk run.
type Report struct {
	Processed int       `json:"processed"`
	Succeeded []int64   `json:"succeeded"`
	Failed    []Failure `json:"failed,omitempty"`
}

// AllFailed reports whether nothing in the batch succeeded.
func (r Report) AllFailed() bool {
	return r.Processed > 0 && len(r.Succeeded) == 0
}

// Operator runs bulk operations.
type Operator struct {
	ops    OrderOperations
	authz  Authorizer
	logger *slog.Logger
}

// NewOperator constructs an Operator.
func NewOperator(ops OrderOperations, authz Authorizer, logger *slog.Logger) *Operator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Operator{ops: ops, authz: authz, logger: logger}
}

func (o *Operator) authorize(ctx context.Context, perm string) error {
	actor, ok := shared.ActorFromContext(ctx)
	if !ok {
		return shared.ErrUnauthenticated
	}
	if o.authz != nil && !o.authz.Can(actor, perm) {
		return shared.ErrForbidden
	}
	return nil
}

// UpdateStatus changes orders one at a time, each in its own transaction.
// A failing order is reported and does not stop the rest.
func (o *Operator) UpdateStatus(ctx context.Context, ids []int64, status, reason string) (Report, error) {
	if err := o.authorize(ctx, shared.PermOrderBulk); err != nil {
		return Report{}, err
	}
	if _, _, err := orders.ValidateStatusTarget(status, reason); err != nil {
		return Report{}, err
	}
	return o.sequential(ctx, "bulk.status", ids, func(ctx context.Context, id int64) error {
		_, err := o.ops.UpdateStatus(ctx, id, status, reason)
		return err
	})
}

// Delete removes orders one at a time, releasing reservations of orders that
// still hold them.
func (o *Operator) Delete(ctx context.Context, ids []int64) (Report, error) {
	if err := o.authorize(ctx, shared.PermOrderBulk); err != nil {
		return Report{}, err
	}
	if err := o.authorize(ctx, shared.PermOrderDelete); err != nil {
		return Report{}, err
	}
	return o.sequential(ctx, "bulk.delete", ids, o.ops.DeleteOrder)
}

// UpdatePriority applies priority to every order in one transaction.
func (o *Operator) UpdatePriority(ctx context.Context, ids []int64, priority string) (Report, error) {
	if err := o.authorize(ctx, shared.PermOrderBulk); err != nil {
		return Report{}, err
	}
	ids, err := orders.ValidateSelection(ids)
	if err != nil {
		return Report{}, err
	}
	if err := o.ops.SetPriority(ctx, ids, priority); err != nil {
		return Report{}, err
	}
	return Report{Processed: len(ids), Succeeded: ids}, nil
}

// Archive sets or clears the archive flag on every order in one transaction.
func (o *Operator) Archive(ctx context.Context, ids []int64, archive bool) (Report, error) {
	if err := o.authorize(ctx, shared.PermOrderBulk); err != nil {
		return Report{}, err
	}
	ids, err := orders.ValidateSelection(ids)
	if err != nil {
		return Report{}, err
	}
	if err := o.ops.SetArchived(ctx, ids, archive); err != nil {
		return Report{}, err
	}
	return Report{Processed: len(ids), Succeeded: ids}, nil
}

func (o *Operator) sequential(ctx context.Context, op string, ids []int64, fn func(context.Context, int64) error) (Report, error) {
	ids, err := orders.ValidateSelection(ids)
	if err != nil {
		return Report{}, err
	}
	report := Report{Succeeded: make([]int64, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++
		if err := fn(ctx, id); err != nil {
			o.logger.Warn("bulk item failed", slog.String("op", op), slog.Int64("order_id", id), slog.Any("error", err))
			report.Failed = append(report.Failed, Failure{
				OrderID: id,
				Error:   shared.PublicMessage(err),
				Kind:    shared.KindOf(err).String(),
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, id)
	}
	o.logger.Info("bulk operation finished", slog.String("op", op), slog.Int("processed", report.Processed), slog.Int("failed", len(report.Failed)))
	return report, nil
}
