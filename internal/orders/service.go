package orders

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/odyssey-erp/odyssey-orders/internal/events"
	"github.com/odyssey-erp/odyssey-orders/internal/rbac"
	"github.com/odyssey-erp/odyssey-orders/internal/reservation"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
	"github.com/odyssey-erp/odyssey-orders/internal/workflow"
)

// Authorizer checks whether an actor may perform an operation.
type Authorizer interface {
	Can(actor shared.Actor, perm string) bool
}

// AuditSink records committed mutations.
type AuditSink interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ErrorSink receives infrastructure failures with operation context.
type ErrorSink interface {
	Report(ctx context.Context, op string, err error)
}

// Automation is notified after every committed status change.
type Automation interface {
	StatusChanged(ctx context.Context, orderID int64, status workflow.Status) error
}

// EventPublisher fans committed changes out to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// ServiceConfig holds numbering settings.
type ServiceConfig struct {
	NumberPrefix string
	NumberBase   int64
}

// Dependencies groups the collaborators of Service. Only Store is required.
type Dependencies struct {
	Store      Store
	Authorizer Authorizer
	Audit      AuditSink
	Errors     ErrorSink
	Automation Automation
	Events     EventPublisher
	Logger     *slog.Logger
}

// Service implements the order lifecycle operations.
type Service struct {
	store        Store
	reservations *reservation.Coordinator
	authz        Authorizer
	audit        AuditSink
	errs         ErrorSink
	automation   Automation
	events       EventPublisher
	logger       *slog.Logger
	cfg          ServiceConfig
	now          func() time.Time
}

// NewService creates a new service.
func NewService(deps Dependencies, cfg ServiceConfig) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authz := deps.Authorizer
	if authz == nil {
		authz = rbac.NewPolicy()
	}
	if cfg.NumberPrefix == "" {
		cfg.NumberPrefix = "ORD"
	}
	if cfg.NumberBase <= 0 {
		cfg.NumberBase = 1000
	}
	return &Service{
		store:        deps.Store,
		reservations: reservation.NewCoordinator(logger),
		authz:        authz,
		audit:        deps.Audit,
		errs:         deps.Errors,
		automation:   deps.Automation,
		events:       deps.Events,
		logger:       logger,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// authorize resolves the acting user and checks perm before any mutation.
func (s *Service) authorize(ctx context.Context, perm string) (shared.Actor, error) {
	actor, ok := shared.ActorFromContext(ctx)
	if !ok {
		return shared.Actor{}, shared.ErrUnauthenticated
	}
	if !s.authz.Can(actor, perm) {
		return actor, shared.ErrForbidden
	}
	return actor, nil
}

// finish reports infrastructure errors for op and returns err unchanged.
func (s *Service) finish(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if shared.KindOf(err) == shared.KindInternal {
		s.logger.Error("order operation failed", slog.String("op", op), slog.Any("error", err))
		if s.errs != nil {
			s.errs.Report(ctx, op, err)
		}
		return err
	}
	s.logger.Info("order operation rejected", slog.String("op", op), slog.String("kind", shared.KindOf(err).String()), slog.String("reason", err.Error()))
	return err
}

func (s *Service) record(ctx context.Context, actor shared.Actor, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "order",
		EntityID: strconv.FormatInt(orderID, 10),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Int64("order_id", orderID), slog.Any("error", err))
	}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("publish event failed", slog.String("type", string(e.Type)), slog.Int64("order_id", e.OrderID), slog.Any("error", err))
	}
}
