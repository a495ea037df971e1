package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/odyssey-erp/odyssey-orders/internal/events"

// Writer is the subset of *kafka.Writer used by the publisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher wraps a Kafka writer with envelope encoding.
type Publisher struct {
	w        Writer
	producer string
	logger   *slog.Logger
	now      func() time.Time

	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// KafkaConfig configures NewKafkaPublisher.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Producer string
}

// NewKafkaPublisher builds a publisher writing asynchronously to cfg.Topic.
// Delivery errors are logged from the writer's completion callback.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("events: brokers and topic are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("kafka delivery failed", slog.Int("messages", len(messages)), slog.Any("error", err))
			}
		},
	}
	return NewPublisher(w, cfg.Producer, logger), nil
}

// NewPublisher wraps an existing writer.
func NewPublisher(w Writer, producer string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if producer == "" {
		producer = "odyssey-orders"
	}
	return &Publisher{
		w:          w,
		producer:   producer,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		tracer:     otel.Tracer(tracerName),
		propagator: otel.GetTextMapPropagator(),
	}
}

// Publish encodes e as an Envelope and writes it keyed by order ID. The
// active trace context travels in the message headers.
func (p *Publisher) Publish(ctx context.Context, e Event) (err error) {
	if p == nil || p.w == nil {
		return nil
	}
	ctx, span := p.tracer.Start(ctx, "publish "+string(e.Type),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.operation", "publish"),
			attribute.Int64("order.id", e.OrderID),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	env, err := p.envelope(e)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("messaging.message.id", env.EventID))
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}

	headers := []kafka.Header{
		{Key: "event-type", Value: []byte(e.Type)},
		{Key: "event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	}
	carrier := propagation.MapCarrier{}
	p.propagator.Inject(ctx, carrier)
	for _, key := range carrier.Keys() {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(carrier.Get(key))})
	}

	return p.w.WriteMessages(ctx, kafka.Message{
		Key:     PartitionKey(e.OrderID),
		Value:   value,
		Time:    env.OccurredAt,
		Headers: headers,
	})
}

func (p *Publisher) envelope(e Event) (Envelope, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     e.Type,
		EventVersion:  1,
		OccurredAt:    p.now(),
		Producer:      p.producer,
		CorrelationID: strconv.FormatInt(e.OrderID, 10),
		Payload:       payload,
	}, nil
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
