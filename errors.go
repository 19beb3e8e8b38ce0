package kanbmine

import (
	"errors"
	"fmt"
)

// Error type tags carried by ClientError. They partition every failure a
// caller can observe into the categories the retry and session layers care
// about.
const (
	// ErrorTypeNetwork covers connection failures and timeouts, surfaced
	// after the retry policy is exhausted.
	ErrorTypeNetwork = "Network"

	// ErrorTypeAuth is an HTTP 401: bad credentials or a revoked API key.
	// Never retried.
	ErrorTypeAuth = "Auth"

	// ErrorTypeValidation is an HTTP 422 on a write; Errors carries the
	// server's message list. Never retried.
	ErrorTypeValidation = "Validation"

	// ErrorTypeAPI is any other non-2xx response (404, 403, exhausted 5xx).
	ErrorTypeAPI = "API"

	// ErrorTypeDecode marks a response body that could not be mapped to the
	// expected envelope shape.
	ErrorTypeDecode = "Decode"

	// ErrorTypeCircuitOpen is a fast failure from the circuit breaker; no
	// network attempt was made.
	ErrorTypeCircuitOpen = "CircuitOpen"

	// ErrorTypeRateLimit is a fast failure from the local rate limiter.
	ErrorTypeRateLimit = "RateLimit"

	// ErrorTypeCanceled means the caller's context was canceled or its
	// deadline expired; remaining retry attempts were abandoned.
	ErrorTypeCanceled = "Canceled"
)

// Sentinel errors for matching with errors.Is.
var (
	// ErrCircuitOpen is returned when the circuit breaker is in open state.
	ErrCircuitOpen = errors.New("kanbmine: circuit open")

	// ErrRateLimited is returned when a request is denied by the rate limiter.
	ErrRateLimited = errors.New("kanbmine: rate limited")
)

// ClientError is the error type returned by every Client operation. Type is
// one of the ErrorType constants; StatusCode is set when an HTTP response was
// received; Errors carries the server's validation messages for 422s.
type ClientError struct {
	Type       string
	Message    string
	StatusCode int
	Errors     []string
	Method     string
	Endpoint   string
	Attempt    int
	Cause      error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempt+1)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types, so errors.Is(err, ErrCircuitOpen) and
// errors.Is(err, &ClientError{Type: ErrorTypeAuth}) both work.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrCircuitOpen:
		return e.Type == ErrorTypeCircuitOpen
	case ErrRateLimited:
		return e.Type == ErrorTypeRateLimit
	}
	if t, ok := target.(*ClientError); ok {
		return e.Type == t.Type
	}
	return false
}

// IsTransient reports whether err represents a failure that might succeed on
// retry: network errors and 5xx responses. Auth, validation, decode, breaker
// and cancellation errors are not transient.
func IsTransient(err error) bool {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeAPI:
		return ce.StatusCode >= 500
	default:
		return false
	}
}

// IsNotFound reports whether err is an HTTP 404 from the server.
func IsNotFound(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrorTypeAPI && ce.StatusCode == 404
}

// IsCanceled reports whether err resulted from caller-side cancellation.
func IsCanceled(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrorTypeCanceled
}

// ValidationMessages extracts the server's validation message list from err,
// or nil if err is not a validation failure.
func ValidationMessages(err error) []string {
	var ce *ClientError
	if errors.As(err, &ce) && ce.Type == ErrorTypeValidation {
		return ce.Errors
	}
	return nil
}

func newDecodeError(message string, cause error) *ClientError {
	return &ClientError{Type: ErrorTypeDecode, Message: message, Cause: cause}
}
