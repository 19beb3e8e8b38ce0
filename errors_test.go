package kanbmine

import (
	"errors"
	"fmt"
	"testing"
)

func TestClientErrorMessage(t *testing.T) {
	err := &ClientError{
		Type:       ErrorTypeAPI,
		Message:    "unexpected status 503",
		StatusCode: 503,
	}
	got := err.Error()
	want := "API: unexpected status 503 (status 503)"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &ClientError{Type: ErrorTypeNetwork, Message: "request failed", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}

	wrapped := fmt.Errorf("listing issues: %w", err)
	var ce *ClientError
	if !errors.As(wrapped, &ce) || ce.Type != ErrorTypeNetwork {
		t.Errorf("errors.As through a wrap: got %v", wrapped)
	}
}

func TestClientErrorIsSentinels(t *testing.T) {
	open := &ClientError{Type: ErrorTypeCircuitOpen}
	if !errors.Is(open, ErrCircuitOpen) {
		t.Error("CircuitOpen error should match ErrCircuitOpen")
	}
	if errors.Is(open, ErrRateLimited) {
		t.Error("CircuitOpen error must not match ErrRateLimited")
	}

	limited := &ClientError{Type: ErrorTypeRateLimit}
	if !errors.Is(limited, ErrRateLimited) {
		t.Error("RateLimit error should match ErrRateLimited")
	}
}

func TestClientErrorIsTypeMatching(t *testing.T) {
	err := &ClientError{Type: ErrorTypeAuth, Message: "authentication rejected"}
	if !errors.Is(err, &ClientError{Type: ErrorTypeAuth}) {
		t.Error("same-type ClientError targets should match")
	}
	if errors.Is(err, &ClientError{Type: ErrorTypeNetwork}) {
		t.Error("different-type ClientError targets must not match")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network", &ClientError{Type: ErrorTypeNetwork}, true},
		{"api 500", &ClientError{Type: ErrorTypeAPI, StatusCode: 500}, true},
		{"api 503", &ClientError{Type: ErrorTypeAPI, StatusCode: 503}, true},
		{"api 404", &ClientError{Type: ErrorTypeAPI, StatusCode: 404}, false},
		{"auth", &ClientError{Type: ErrorTypeAuth, StatusCode: 401}, false},
		{"validation", &ClientError{Type: ErrorTypeValidation, StatusCode: 422}, false},
		{"circuit open", &ClientError{Type: ErrorTypeCircuitOpen}, false},
		{"canceled", &ClientError{Type: ErrorTypeCanceled}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&ClientError{Type: ErrorTypeAPI, StatusCode: 404}) {
		t.Error("404 API error should be not-found")
	}
	if IsNotFound(&ClientError{Type: ErrorTypeAPI, StatusCode: 403}) {
		t.Error("403 is not not-found")
	}
}

func TestValidationMessages(t *testing.T) {
	err := &ClientError{
		Type:   ErrorTypeValidation,
		Errors: []string{"Subject cannot be blank", "Tracker is invalid"},
	}
	got := ValidationMessages(err)
	if len(got) != 2 || got[1] != "Tracker is invalid" {
		t.Errorf("ValidationMessages = %v", got)
	}
	if ValidationMessages(errors.New("boom")) != nil {
		t.Error("non-validation errors should yield nil")
	}
}
