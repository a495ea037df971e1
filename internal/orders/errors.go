package orders

import "github.com/odyssey-erp/odyssey-orders/internal/shared"

// Domain errors for orders.
var (
	ErrOrderNotFound     = shared.NewError(shared.KindNotFound, "order not found")
	ErrClientNotFound    = shared.NewError(shared.KindNotFound, "client not found")
	ErrPromocodeNotFound = shared.NewError(shared.KindNotFound, "promocode not found")

	ErrInvalidOrderID     = shared.NewError(shared.KindValidation, "invalid order id")
	ErrInvalidClientID    = shared.NewError(shared.KindValidation, "invalid client id")
	ErrInvalidPriority    = shared.NewError(shared.KindValidation, "priority must be normal or high")
	ErrEmptyItems         = shared.NewError(shared.KindValidation, "at least one item is required")
	ErrInvalidQuantity    = shared.NewError(shared.KindValidation, "quantity must be greater than zero")
	ErrQuantityPrecision  = shared.NewError(shared.KindValidation, "quantity supports at most 3 decimal places")
	ErrInvalidPrice       = shared.NewError(shared.KindValidation, "price cannot be negative")
	ErrInvalidAdvance     = shared.NewError(shared.KindValidation, "advance amount cannot be negative")
	ErrCancelReason       = shared.NewError(shared.KindValidation, "cancellation reason is required")
	ErrEmptySelection     = shared.NewError(shared.KindValidation, "no orders selected")
	ErrSelectionTooLarge  = shared.NewError(shared.KindValidation, "too many orders selected")
	ErrConcurrentUpdate   = shared.NewError(shared.KindBusiness, "order was modified concurrently")
	ErrOrderNumberExhaust = shared.NewError(shared.KindBusiness, "could not allocate an order number")
)
