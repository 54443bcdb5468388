// Package apperr defines the error taxonomy shared by the gateway, the
// resolver and the HTTP layer. Every error carries a stable machine-readable
// code, a human message and optional structured details, so the transport
// layer can map it to a status and an error envelope without inspecting
// message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error class.
type Code string

const (
	CodeValidation Code = "bad_request"
	CodeAuth       Code = "unauthorized"
	CodeNotFound   Code = "not_found"
	CodeUpstream   Code = "upstream_error"
	CodeConfig     Code = "config_error"
	CodeInternal   Code = "internal_error"
)

// Error is the single error type used across the service.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Code, e.Message, e.Details)
}

// HTTPStatus returns the status code the transport layer should respond with.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeAuth:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports a caller error (missing selector, malformed date, ...).
func Validation(message string, details map[string]any) *Error {
	return &Error{Code: CodeValidation, Message: message, Details: details}
}

// Auth reports rejected credentials.
func Auth(message string, details map[string]any) *Error {
	return &Error{Code: CodeAuth, Message: message, Details: details}
}

// NotFound reports a missing backend resource or an empty resolution.
func NotFound(message string, details map[string]any) *Error {
	return &Error{Code: CodeNotFound, Message: message, Details: details}
}

// Upstream reports a backend transient/server error or a transport failure.
func Upstream(message string, details map[string]any) *Error {
	return &Error{Code: CodeUpstream, Message: message, Details: details}
}

// Config reports invalid static configuration.
func Config(message string, details map[string]any) *Error {
	return &Error{Code: CodeConfig, Message: message, Details: details}
}

// From extracts an *Error from err, or wraps err as an internal error.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: "Internal server error"}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
