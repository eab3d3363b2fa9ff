package entity

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so delivery layers can pick an outcome
// without inspecting messages.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidVariant
	KindEmptyCart
	KindOutOfStock
	KindValidationFailed
	KindTransportFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindInvalidVariant:
		return "INVALID_VARIANT"
	case KindEmptyCart:
		return "EMPTY_CART"
	case KindOutOfStock:
		return "OUT_OF_STOCK"
	case KindValidationFailed:
		return "VALIDATION_FAILED"
	case KindTransportFailure:
		return "TRANSPORT_FAILURE"
	default:
		return "INTERNAL"
	}
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrInternal         = &Error{Kind: KindInternal}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrInvalidVariant   = &Error{Kind: KindInvalidVariant}
	ErrEmptyCart        = &Error{Kind: KindEmptyCart}
	ErrOutOfStock       = &Error{Kind: KindOutOfStock}
	ErrValidationFailed = &Error{Kind: KindValidationFailed}
	ErrTransportFailure = &Error{Kind: KindTransportFailure}
)

// Error is a domain error with a human-readable message. Err holds the
// underlying cause, if any, and is never shown to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidVariant(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidVariant, Message: fmt.Sprintf(format, args...)}
}

func EmptyCart(message string) *Error {
	return &Error{Kind: KindEmptyCart, Message: message}
}

func OutOfStock(format string, args ...any) *Error {
	return &Error{Kind: KindOutOfStock, Message: fmt.Sprintf(format, args...)}
}

func ValidationFailed(format string, args ...any) *Error {
	return &Error{Kind: KindValidationFailed, Message: fmt.Sprintf(format, args...)}
}

func TransportFailure(message string, err error) *Error {
	return &Error{Kind: KindTransportFailure, Message: message, Err: err}
}

// Internal hides err behind a caller-safe message.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}
