// Package apperror defines the error taxonomy shared by services and
// handlers. Services return *Error values; the HTTP layer maps the Kind to a
// status code and a {message} body.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindStock
	KindAuth
	KindForbidden
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStock:
		return "stock"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Stock reports insufficient inventory for a single product.
func Stock(productID uuid.UUID, name string, available, requested int) *Error {
	return &Error{
		Kind: KindStock,
		Message: fmt.Sprintf("Not enough stock for product %s (ID: %s). Available: %d, Requested: %d",
			name, productID, available, requested),
	}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Unavailable(message string) *Error {
	return &Error{Kind: KindUnavailable, Message: message}
}

// Internal wraps an unexpected failure. The message is what clients see.
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// StatusCode maps err to the HTTP status returned to clients.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation, KindStock:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to a client. Internal errors
// never echo the underlying cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && (e.Kind != KindInternal || e.Message != "") {
		return e.Message
	}
	return "Internal server error"
}
