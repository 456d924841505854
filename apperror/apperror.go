// Package apperror defines the error taxonomy shared by services and the
// HTTP boundary. Every service operation fails with exactly one Kind.
package apperror

import (
	"errors"
	"fmt"
	"time"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAlreadyExists
	KindNotFound
	KindForbidden
	KindInvalidCredentials
	KindAuthenticationFailed
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAlreadyExists:
		return "already_exists"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error is the single error shape rendered by the API layer.
type Error struct {
	Kind   Kind
	Code   string
	Title  string
	Detail string
	// Fields maps a request field to its messages.
	Fields     map[string][]string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// WithField appends a message for field and returns e.
func (e *Error) WithField(field, message string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Wrap attaches cause to e and returns e.
func (e *Error) Wrap(cause error) *Error {
	e.Err = cause
	return e
}

// From extracts the *Error in err's chain. Anything else is reported as
// an internal error carrying err as its cause.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Validation(detail string) *Error {
	return &Error{
		Kind:   KindValidation,
		Code:   "VALIDATION_ERROR",
		Title:  "Request validation failed",
		Detail: detail,
	}
}

// FieldValidation is a validation error with a single field message.
func FieldValidation(field, message string) *Error {
	return Validation("Submitted data did not pass validation").WithField(field, message)
}

func AlreadyExists(code, title, detail string) *Error {
	return &Error{Kind: KindAlreadyExists, Code: code, Title: title, Detail: detail}
}

func NotFound(code, title, detail string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Title: title, Detail: detail}
}

func Forbidden(detail string) *Error {
	return &Error{
		Kind:   KindForbidden,
		Code:   "FORBIDDEN",
		Title:  "Insufficient permissions",
		Detail: detail,
	}
}

func InvalidCredentials() *Error {
	return &Error{
		Kind:   KindInvalidCredentials,
		Code:   "INVALID_CREDENTIALS",
		Title:  "Invalid email or password",
		Detail: "Check your credentials and try again",
	}
}

func AuthenticationFailed(detail string) *Error {
	return &Error{
		Kind:   KindAuthenticationFailed,
		Code:   "AUTHENTICATION_FAILED",
		Title:  "Authentication failed",
		Detail: detail,
	}
}

func Conflict(detail string) *Error {
	return &Error{
		Kind:   KindConflict,
		Code:   "BOOKING_CONFLICT",
		Title:  "Slot is already booked",
		Detail: detail,
	}
}

func RateLimited(limit int, window, retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Code:       "RATE_LIMIT_EXCEEDED",
		Title:      "Too many requests",
		Detail:     fmt.Sprintf("Too many requests. Limit: %d per %d seconds", limit, int(window.Seconds())),
		RetryAfter: retryAfter,
	}
}

func Internal(cause error) *Error {
	return &Error{
		Kind:   KindInternal,
		Code:   "INTERNAL_ERROR",
		Title:  "Internal server error",
		Detail: "An unexpected error occurred",
		Err:    cause,
	}
}
