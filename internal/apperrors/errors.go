// internal/apperrors/errors.go

// Package apperrors defines the typed error taxonomy shared by all services.
// Handlers map an error's Kind to an HTTP status without inspecting message
// text, so services never encode transport concerns in error strings.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindAuthentication Kind = "UNAUTHORIZED"
	KindAuthorization  Kind = "FORBIDDEN"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindState          Kind = "INVALID_STATE"
	KindInternal       Kind = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to its response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error     { return newError(KindValidation, message) }
func Authentication(message string) *Error { return newError(KindAuthentication, message) }
func Authorization(message string) *Error  { return newError(KindAuthorization, message) }
func NotFound(message string) *Error       { return newError(KindNotFound, message) }
func Conflict(message string) *Error       { return newError(KindConflict, message) }
func State(message string) *Error          { return newError(KindState, message) }

// Internal wraps an unexpected error. The wrapped cause is logged server-side
// and never leaks to the client.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// WithDetails attaches structured detail (e.g. field validation errors) for
// the response body.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// As extracts a typed Error from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is a typed Error of the given kind.
func IsKind(err error, kind Kind) bool {
	if appErr, ok := As(err); ok {
		return appErr.Kind == kind
	}
	return false
}
