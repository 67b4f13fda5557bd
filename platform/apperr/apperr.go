// Package apperr provides the typed errors the HTTP layer maps to status
// codes. The pipeline recovers almost everything internally, so the error
// vocabulary is small: invalid caller payloads, rejected tracking keys,
// and rate-limited callers.
package apperr

import "net/http"

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindValidation indicates invalid caller input.
	KindValidation
	// KindUnauthorized indicates a missing or rejected tracking key.
	KindUnauthorized
	// KindRateLimited indicates the caller exceeded the per-IP limit.
	KindRateLimited
)

// Error is a typed error carried to the HTTP layer.
type Error struct {
	Kind    Kind
	Message string
	Details interface{} // additional details for the response (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus returns the status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

// New creates an error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithDetails returns the error with additional response details set.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Validation creates an invalid-input error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Unauthorized creates a rejected-credential error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// RateLimited creates a rate-limit error.
func RateLimited(message string) *Error {
	return New(KindRateLimited, message)
}
