package observability

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorSink logs infrastructure failures and counts them per operation.
type ErrorSink struct {
	metrics *Metrics
	logger  *slog.Logger
}

// NewErrorSink constructs an ErrorSink. Metrics may be nil.
func NewErrorSink(metrics *Metrics, logger *slog.Logger) *ErrorSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorSink{metrics: metrics, logger: logger}
}

// Report records err against op.
func (s *ErrorSink) Report(ctx context.Context, op string, err error) {
	if s == nil || err == nil {
		return
	}
	attrs := []any{slog.String("op", op), slog.Any("error", err)}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("request_id", reqID))
	}
	s.logger.Error("operation failure reported", attrs...)
	if s.metrics != nil {
		s.metrics.operationErrors.WithLabelValues(op).Inc()
	}
}
