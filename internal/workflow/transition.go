package workflow

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// Effect is the stock side effect of a transition.
type Effect uint8

const (
	// EffectNone changes only the status field.
	EffectNone Effect = iota
	// EffectDeduct physically removes reserved stock.
	EffectDeduct
	// EffectRelease returns reserved stock to the available pool.
	EffectRelease
)

func (e Effect) String() string {
	switch e {
	case EffectDeduct:
		return "deduct"
	case EffectRelease:
		return "release"
	default:
		return "none"
	}
}

// ErrIllegalTransition is returned for pairs outside the transition table.
var ErrIllegalTransition = shared.NewError(shared.KindBusiness, "illegal status transition")

// allowed[from][to] is the adjacency matrix of the pipeline.
var allowed = [numStatuses][numStatuses]bool{
	StatusNew:        {StatusDesign: true, StatusProduction: true, StatusCancelled: true},
	StatusDesign:     {StatusNew: true, StatusProduction: true, StatusCancelled: true},
	StatusProduction: {StatusDone: true, StatusCancelled: true},
	StatusDone:       {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusCancelled: true},
	StatusCancelled:  {StatusNew: true, StatusDesign: true, StatusProduction: true},
}

// CanTransition reports whether from -> to is in the table. Self transitions
// are not part of the table.
func CanTransition(from, to Status) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	return allowed[from][to]
}

// Targets lists the statuses reachable from s.
func Targets(s Status) []Status {
	if !s.IsValid() {
		return nil
	}
	var out []Status
	for to, ok := range allowed[s] {
		if ok {
			out = append(out, Status(to))
		}
	}
	return out
}

// Classify returns the stock side effect of moving from -> to, regardless of
// whether the pair is legal.
func Classify(from, to Status) Effect {
	switch {
	case from == to:
		return EffectNone
	case to.Fulfilled() && !from.Fulfilled():
		return EffectDeduct
	case to == StatusCancelled && from.Reservable():
		return EffectRelease
	default:
		return EffectNone
	}
}

// Plan validates from -> to and returns its side effect. A self transition is
// a no-op and always succeeds.
func Plan(from, to Status) (Effect, error) {
	if !from.IsValid() || !to.IsValid() {
		return EffectNone, ErrUnknownStatus
	}
	if from == to {
		return EffectNone, nil
	}
	if !allowed[from][to] {
		return EffectNone, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return Classify(from, to), nil
}
