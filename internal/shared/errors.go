package shared

import "errors"

// Kind classifies an error for the operation boundary.
type Kind uint8

const (
	// KindInternal covers store and infrastructure failures.
	KindInternal Kind = iota
	// KindValidation marks malformed input rejected before any mutation.
	KindValidation
	// KindForbidden marks a caller lacking the required role or department.
	KindForbidden
	// KindBusiness marks a rule violation such as an illegal transition.
	KindBusiness
	// KindNotFound marks a missing order, client or item.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindBusiness:
		return "business"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified domain error. Its message is safe to show callers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds a classified error.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation builds a validation error with the given message.
func Validation(msg string) error {
	return NewError(KindValidation, msg)
}

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = NewError(KindNotFound, "not found")
	// ErrForbidden indicates the actor lacks the permission for the operation.
	ErrForbidden = NewError(KindForbidden, "insufficient rights")
	// ErrUnauthenticated indicates no actor is attached to the request.
	ErrUnauthenticated = NewError(KindForbidden, "authentication required")
)

// KindOf returns the classification of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// PublicMessage returns the short human-readable string shown to callers:
// the message of the classified error without wrapping context.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if !errors.As(err, &de) || de.Kind == KindInternal {
		return "internal error"
	}
	if de.Kind == KindForbidden {
		return ErrForbidden.Message
	}
	return de.Message
}
