// Package apierror provides the standardized API error responses used by
// all HTTP handlers.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

// Standard error codes.
const (
	CodeBadRequest        Code = "BAD_REQUEST"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeValidationFailed  Code = "VALIDATION_FAILED"
	CodeInternalError     Code = "INTERNAL_ERROR"
	CodeUpstreamFailed    Code = "UPSTREAM_FAILED"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeTimeout           Code = "TIMEOUT"
)

// Error is a standardized API error.
type Error struct {
	Status  int    `json:"-"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails attaches details to the error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// WithError attaches an internal error, not exposed to clients.
func (e *Error) WithError(err error) *Error {
	e.Err = err
	return e
}

// Response is the JSON body written for an error.
type Response struct {
	Error   string `json:"error"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	// Detail mirrors Message for upstream billing failures, matching the
	// gateway's response shape.
	Detail string `json:"detail,omitempty"`
}

// WriteJSON writes the error as JSON to the response writer.
func (e *Error) WriteJSON(w http.ResponseWriter) {
	resp := Response{
		Error:   string(e.Code),
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
	if e.Code == CodeUpstreamFailed {
		resp.Detail = e.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Constructors

// New creates a new API error.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Access denied"
	}
	return New(http.StatusForbidden, CodeForbidden, message)
}

// NotFound creates a 404 error for a resource.
func NotFound(resource string) *Error {
	message := "Resource not found"
	if resource != "" {
		message = resource + " not found"
	}
	return New(http.StatusNotFound, CodeNotFound, message)
}

// Conflict creates a 409 error.
func Conflict(message string) *Error {
	return New(http.StatusConflict, CodeConflict, message)
}

// ValidationFailed creates a 422 error with field details.
func ValidationFailed(message string, details any) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidationFailed,
		Message: message,
		Details: details,
	}
}

// UpstreamFailed creates a 502 error carrying the upstream detail message.
func UpstreamFailed(detail string) *Error {
	if detail == "" {
		detail = "Something went wrong"
	}
	return New(http.StatusBadGateway, CodeUpstreamFailed, detail)
}

// InternalError creates a 500 error wrapping the internal cause.
func InternalError(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// RateLimitExceeded creates a 429 error.
func RateLimitExceeded() *Error {
	return New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")
}

// FromError converts any error to an API error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return InternalError(err)
}

// ValidationError is a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
