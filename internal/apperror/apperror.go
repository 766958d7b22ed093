// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package apperror defines the error kinds surfaced to API clients.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP error responder.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateKey
	KindInvalidCredentials
	KindUnauthorized
	KindForbidden
	KindInvalidOrExpiredToken
	KindNotFound
)

// Machine-readable codes attached to some errors.
const (
	CodeTokenExpired       = "token_expired"
	CodeAccountDeactivated = "account_deactivated"
	CodeVerifyEmail        = "verify_email"
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInvalidOrExpiredToken:
		return "invalid_or_expired_token"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Status maps an error kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicateKey, KindInvalidOrExpiredToken:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a client-facing error with a kind and a safe message.
type Error struct { //nolint:govet // fieldalignment not critical
	Kind    Kind
	Message string
	Code    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode returns a copy of the error carrying the given code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error   { return New(KindValidation, message) }
func Duplicate(message string) *Error    { return New(KindDuplicateKey, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }

// InvalidCredentials is returned for any failed email/password check.
func InvalidCredentials(message string) *Error {
	return New(KindInvalidCredentials, message)
}

// InvalidOrExpiredToken is returned when a reset or verification token does not match.
func InvalidOrExpiredToken(message string) *Error {
	return New(KindInvalidOrExpiredToken, message)
}

// Internal wraps an unexpected failure; the message is safe to show.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
