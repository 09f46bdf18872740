// Package errs defines the error kinds the service surfaces to callers.
// Handlers map them to HTTP status codes; everything unrecognized is an
// internal error.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound        = "not_found"
	CodeForbidden       = "forbidden"
	CodeUnauthorized    = "unauthorized"
	CodeConflict        = "conflict"
	CodeExtraction      = "extraction_failed"
	CodeRateLimit       = "rate_limited"
	CodeMalformedOutput = "malformed_model_output"
	CodeInternal        = "internal_error"
)

type Error struct {
	Code       string
	Status     int
	Message    string
	RetryAfter int // seconds, set only for rate-limit errors
	Err        error
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

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: message}
}

func Extraction(message string, err error) *Error {
	return &Error{Code: CodeExtraction, Status: http.StatusUnprocessableEntity, Message: message, Err: err}
}

func RateLimit(retryAfter int) *Error {
	return &Error{
		Code:       CodeRateLimit,
		Status:     http.StatusTooManyRequests,
		Message:    fmt.Sprintf("The AI quota has been exceeded. Please try again in about %d seconds.", retryAfter),
		RetryAfter: retryAfter,
	}
}

func MalformedOutput(message string) *Error {
	return &Error{Code: CodeMalformedOutput, Status: http.StatusBadGateway, Message: message}
}

func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// As unwraps err into *Error if possible.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.Code == CodeNotFound
}

func IsForbidden(err error) bool {
	e, ok := As(err)
	return ok && e.Code == CodeForbidden
}

func IsRateLimit(err error) bool {
	e, ok := As(err)
	return ok && e.Code == CodeRateLimit
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
