// Package events publishes order lifecycle envelopes to Kafka.
package events

import (
	"encoding/json"
	"strconv"
	"time"
)

// Type names an order lifecycle event.
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status.changed"
	OrderUpdated       Type = "order.updated"
	PaymentRecorded    Type = "order.payment.recorded"
	OrderDeleted       Type = "order.deleted"
	TasksRequested     Type = "order.tasks.requested"
)

// Event is what callers hand to the publisher.
type Event struct {
	Type    Type
	OrderID int64
	Payload any
}

// Envelope is the wire format written to the topic.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     Type            `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// StatusChangedPayload accompanies OrderStatusChanged.
type StatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	Number  string `json:"number"`
	From    string `json:"from"`
	To      string `json:"to"`
	Reason  string `json:"reason,omitempty"`
	ActorID int64  `json:"actor_id"`
}

// OrderCreatedPayload accompanies OrderCreated.
type OrderCreatedPayload struct {
	OrderID  int64  `json:"order_id"`
	Number   string `json:"number"`
	ClientID int64  `json:"client_id"`
	Total    string `json:"total"`
	Discount string `json:"discount"`
	Items    int    `json:"items"`
}

// PaymentPayload accompanies PaymentRecorded.
type PaymentPayload struct {
	OrderID   int64  `json:"order_id"`
	PaymentID int64  `json:"payment_id"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	IsAdvance bool   `json:"is_advance"`
}

// OrderUpdatedPayload accompanies OrderUpdated and OrderDeleted.
type OrderUpdatedPayload struct {
	OrderID int64          `json:"order_id"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// PartitionKey keeps every event of one order on one partition.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
