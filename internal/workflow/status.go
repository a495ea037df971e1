// Package workflow holds the order status state machine.
package workflow

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// Status is the fulfillment state of an order.
type Status uint8

const (
	StatusNew Status = iota
	StatusDesign
	StatusProduction
	StatusDone
	StatusShipped
	StatusCancelled

	numStatuses
)

var statusNames = [numStatuses]string{
	StatusNew:        "new",
	StatusDesign:     "design",
	StatusProduction: "production",
	StatusDone:       "done",
	StatusShipped:    "shipped",
	StatusCancelled:  "cancelled",
}

// ErrUnknownStatus is returned when a value does not name a status.
var ErrUnknownStatus = shared.NewError(shared.KindValidation, "unknown order status")

// Statuses returns every status in pipeline order.
func Statuses() []Status {
	out := make([]Status, 0, numStatuses)
	for s := Status(0); s < numStatuses; s++ {
		out = append(out, s)
	}
	return out
}

// ParseStatus converts the stored name into a Status.
func ParseStatus(raw string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for s, n := range statusNames {
		if n == name {
			return Status(s), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// IsValid reports whether s is one of the defined states.
func (s Status) IsValid() bool {
	return s < numStatuses
}

func (s Status) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
	return statusNames[s]
}

// Fulfilled reports whether goods have physically left inventory in s.
func (s Status) Fulfilled() bool {
	return s == StatusDone || s == StatusShipped
}

// Reservable reports whether an order in s still holds a stock reservation.
func (s Status) Reservable() bool {
	return s.IsValid() && !s.Fulfilled() && s != StatusCancelled
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, ErrUnknownStatus
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scan implements sql.Scanner for the orders.status column.
func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	case nil:
		return fmt.Errorf("workflow: scan status: null value")
	default:
		return fmt.Errorf("workflow: scan status: unsupported type %T", src)
	}
}

// Value implements driver.Valuer.
func (s Status) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, ErrUnknownStatus
	}
	return statusNames[s], nil
}
