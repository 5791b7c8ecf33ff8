// Package apperr defines the error taxonomy shared by the stores, services and
// HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers that need to pick a response.
type Kind int

const (
	Internal Kind = iota
	InvalidArgument
	Unauthorized
	NotFound
	UnsupportedMediaType
	PayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	case Unauthorized:
		return "UNAUTHORIZED"
	case NotFound:
		return "NOT_FOUND"
	case UnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case PayloadTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		return "INTERNAL"
	}
}

// Error carries a Kind, a message that is safe to show to a client, and an
// optional wrapped cause that is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// PublicMessage returns the text a client may see. Internal errors always get
// a generic message so no I/O detail leaks.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return fallback
}

// HTTPStatus maps a Kind to the response status used by the API.
// NotFound is reported as 400: the caller named a section that isn't there.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidArgument, NotFound, UnsupportedMediaType, PayloadTooLarge:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
