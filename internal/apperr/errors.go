// Package apperr defines the error kinds shared by the store, service and
// transport layers.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Every error surfaced to a client wraps exactly one of these.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("service unavailable")
)

// Machine-readable codes returned alongside the human message.
const (
	CodeMissingToken          = "missing_token"
	CodeInvalidAuthHeader     = "invalid_auth_header"
	CodeInvalidToken          = "invalid_token"
	CodeTokenExpired          = "token_expired"
	CodeTokenRevoked          = "token_revoked"
	CodeUserNotFound          = "user_not_found"
	CodeNotAuthenticated      = "not_authenticated"
	CodeInvalidCredentials    = "invalid_credentials"
	CodeAccountBlocked        = "account_blocked"
	CodeForbidden             = "forbidden"
	CodeDuplicateUsername     = "duplicate_username"
	CodeDuplicateEmail        = "duplicate_email"
	CodeAlreadySubmittedToday = "already_submitted_today"
	CodeMissingFields         = "missing_fields"
	CodeInvalidFields         = "invalid_fields"
	CodeInvalidBody           = "invalid_body"
	CodeNoQuestionnaire       = "no_questionnaire"
	CodeNoFinancialProfile    = "no_financial_profile"
	CodeNotFound              = "not_found"
	CodeUnavailable           = "unavailable"
	CodeRateLimited           = "rate_limited"
)

// Error is a classified application error.
type Error struct {
	Kind    error
	Code    string
	Message string
	// Fields names offending request fields, in a stable order.
	Fields []string
	// Roles lists the roles that would have been accepted.
	Roles []string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is match both the kind and the wrapped cause.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap builds an Error of the given kind carrying cause.
func Wrap(kind error, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

func Unauthenticated(code, message string) *Error {
	return New(ErrUnauthenticated, code, message)
}

func Forbidden(code, message string) *Error {
	return New(ErrForbidden, code, message)
}

func Conflict(code, message string) *Error {
	return New(ErrConflict, code, message)
}

func NotFound(code, message string) *Error {
	return New(ErrNotFound, code, message)
}

// Validation reports a request that failed validation on the named fields.
func Validation(code, message string, fields ...string) *Error {
	e := New(ErrValidation, code, message)
	e.Fields = fields
	return e
}

// Unavailable marks a dependency failure the client may retry.
func Unavailable(cause error) *Error {
	return Wrap(ErrUnavailable, CodeUnavailable, "service temporarily unavailable, retry later", cause)
}

// As returns the classified error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries the given machine code.
func IsCode(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}
