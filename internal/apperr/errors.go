// Package apperr defines the error taxonomy shared by the HTTP API and
// the client. Every failure that reaches a caller is normalized into an
// *Error carrying a machine-readable code and an HTTP status.
package apperr

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Error codes
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeAuth       = "AUTH_ERROR"
	CodePermission = "PERMISSION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeRateLimit  = "RATE_LIMIT_EXCEEDED"
	CodeTimeout    = "TIMEOUT_ERROR"
	CodeDuplicate  = "DUPLICATE_ERROR"
	CodeHTTP       = "HTTP_ERROR"
	CodeUpdate     = "UPDATE_ERROR"
	CodeDelete     = "DELETE_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// Error is a classified failure.
type Error struct {
	Message    string `json:"message"`
	Code       string `json:"code"`
	StatusCode int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error with an explicit status code.
func New(message, code string, statusCode int) *Error {
	return &Error{Message: message, Code: code, StatusCode: statusCode}
}

// Validation reports malformed input (400).
func Validation(message string) *Error {
	return New(message, CodeValidation, http.StatusBadRequest)
}

// Auth reports bad credentials (401).
func Auth(message string) *Error {
	return New(message, CodeAuth, http.StatusUnauthorized)
}

// Permission reports an ownership or role violation (403).
func Permission(message string) *Error {
	return New(message, CodePermission, http.StatusForbidden)
}

// NotFound reports a missing record (404).
func NotFound(message string) *Error {
	return New(message, CodeNotFound, http.StatusNotFound)
}

// RateLimit reports an exhausted request window (429).
func RateLimit(message string) *Error {
	return New(message, CodeRateLimit, http.StatusTooManyRequests)
}

// Timeout reports an exhausted request deadline (408).
func Timeout(message string) *Error {
	return New(message, CodeTimeout, http.StatusRequestTimeout)
}

// Duplicate reports a username/email collision (400).
func Duplicate(message string) *Error {
	return New(message, CodeDuplicate, http.StatusBadRequest)
}

// Classify normalizes any error into an *Error. Already-classified
// errors pass through unchanged, so Classify(Classify(err)) is stable.
// Anything else is logged and surfaced as a generic internal error.
func Classify(log *logrus.Logger, err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.StatusCode == 0 {
			appErr.StatusCode = http.StatusBadRequest
		}
		return appErr
	}

	if log != nil {
		log.Errorf("Unexpected error: %v", err)
	}
	return New("An unexpected error occurred", CodeInternal, http.StatusInternalServerError)
}
