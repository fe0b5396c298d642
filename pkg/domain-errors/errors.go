// Package domainerrors carries the error taxonomy shared by services and the
// HTTP edge. Services return *Error values; transport translates the Code into
// a status and a stable machine-readable string.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier exposed to clients.
type Code string

// Registration codes.
const (
	CodeMalformedInput        Code = "malformed_input"
	CodeNotInWhitelist        Code = "not_in_whitelist"
	CodeAlreadyRegistered     Code = "already_registered"
	CodeAuthorizationInactive Code = "authorization_inactive"
	CodeAuthorizationExpired  Code = "authorization_expired"
	CodeNameMismatch          Code = "name_mismatch"
	CodeRoleNotAuthorized     Code = "role_not_authorized"
	CodeConflict              Code = "conflict"
	CodeWeakPassword          Code = "weak_password"
)

// Authentication and authorization codes.
const (
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeTokenExpired       Code = "token_expired"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeRateLimited        Code = "rate_limited"
)

// Generic codes.
const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvariantViolation Code = "invariant_violation"
	CodeNotFound           Code = "not_found"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a domain error with a code, a human message and optional details
// (e.g. the concrete whitelist status behind authorization_inactive).
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code and message so tests can compare against
// a freshly built value with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithDetail returns a copy of the error carrying an extra detail.
func (e *Error) WithDetail(key, value string) *Error {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Code: e.Code, Message: e.Message, Details: details, Err: e.Err}
}

// New builds a domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// From extracts the first *Error in the chain.
func From(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	de, ok := From(err)
	return ok && de.Code == code
}

// Is is a convenience re-export of errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// ToHTTPStatus maps a code to the HTTP status used at the transport edge.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeMalformedInput, CodeWeakPassword, CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeNotInWhitelist, CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyRegistered, CodeConflict:
		return http.StatusConflict
	case CodeAuthorizationInactive, CodeAuthorizationExpired, CodeNameMismatch,
		CodeRoleNotAuthorized, CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidCredentials, CodeTokenExpired, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
