package kanbmine

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func newTestBreaker(t *testing.T) (*CircuitBreaker, *time.Time) {
	t.Helper()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second})
	cb.now = func() time.Time { return clock }
	return cb, &clock
}

func tripBreaker(cb *CircuitBreaker, failures int) {
	for i := 0; i < failures; i++ {
		cb.RecordFailure()
	}
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb, _ := newTestBreaker(t)

	tripBreaker(cb, 4)
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state after 4 failures = %v, want closed", got)
	}
	if !cb.Allow() {
		t.Fatal("closed breaker must admit calls")
	}

	cb.RecordFailure()
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state after 5 failures = %v, want open", got)
	}
	if cb.Allow() {
		t.Fatal("open breaker must block calls")
	}
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(t)

	tripBreaker(cb, 4)
	cb.RecordSuccess()
	tripBreaker(cb, 4)
	if got := cb.State(); got != StateClosed {
		t.Errorf("state = %v, want closed: success must reset the streak", got)
	}
}

func TestCircuitBreakerHalfOpenSingleTrial(t *testing.T) {
	cb, clock := newTestBreaker(t)
	tripBreaker(cb, 5)

	*clock = clock.Add(29 * time.Second)
	if cb.Allow() {
		t.Fatal("breaker must stay open before the cool-down elapses")
	}

	*clock = clock.Add(time.Second)
	if !cb.Allow() {
		t.Fatal("breaker must admit one trial after the cool-down")
	}
	if got := cb.State(); got != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", got)
	}
	if cb.Allow() {
		t.Fatal("only one half-open trial may be in flight")
	}
}

func TestCircuitBreakerTrialSuccessCloses(t *testing.T) {
	cb, clock := newTestBreaker(t)
	tripBreaker(cb, 5)
	*clock = clock.Add(30 * time.Second)

	if !cb.Allow() {
		t.Fatal("expected trial admission")
	}
	cb.RecordSuccess()
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed", got)
	}
	if !cb.Allow() {
		t.Error("closed breaker must admit calls again")
	}
}

func TestCircuitBreakerTrialFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(t)
	tripBreaker(cb, 5)
	*clock = clock.Add(30 * time.Second)

	if !cb.Allow() {
		t.Fatal("expected trial admission")
	}
	cb.RecordFailure()
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}
	if cb.Allow() {
		t.Error("reopened breaker must block until the next cool-down")
	}

	*clock = clock.Add(30 * time.Second)
	if !cb.Allow() {
		t.Error("a fresh cool-down must admit a new trial")
	}
}

func TestCircuitBreakerGuardFastFailure(t *testing.T) {
	cb, _ := newTestBreaker(t)
	tripBreaker(cb, 5)

	calls := 0
	guarded := cb.Guard(func(ctx context.Context) (*Response, error) {
		calls++
		return &Response{StatusCode: http.StatusOK}, nil
	})

	_, err := guarded(context.Background())
	if calls != 0 {
		t.Errorf("transport called %d times while open, want 0", calls)
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("got %v, want circuit-open error", err)
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Type != ErrorTypeCircuitOpen {
		t.Errorf("got %v, want CircuitOpen type", err)
	}
}

func TestCircuitBreakerGuardRecordsOutcomes(t *testing.T) {
	cb, _ := newTestBreaker(t)

	fail := cb.Guard(func(ctx context.Context) (*Response, error) {
		return &Response{StatusCode: http.StatusInternalServerError}, nil
	})
	for i := 0; i < 5; i++ {
		_, _ = fail(context.Background())
	}
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v, want open after five 5xx responses", got)
	}
}

func TestCircuitBreakerGuardIgnoresClientErrors(t *testing.T) {
	cb, _ := newTestBreaker(t)

	notFound := cb.Guard(func(ctx context.Context) (*Response, error) {
		return &Response{StatusCode: http.StatusNotFound}, nil
	})
	for i := 0; i < 10; i++ {
		_, _ = notFound(context.Background())
	}
	if got := cb.State(); got != StateClosed {
		t.Errorf("state = %v, want closed: 4xx responses are not transport failures", got)
	}
}

func TestCircuitBreakerGuardCanceledTrialFreesSlot(t *testing.T) {
	cb, clock := newTestBreaker(t)
	tripBreaker(cb, 5)
	*clock = clock.Add(30 * time.Second)

	canceled := cb.Guard(func(ctx context.Context) (*Response, error) {
		return nil, &ClientError{Type: ErrorTypeCanceled, Message: "request canceled"}
	})
	_, err := canceled(context.Background())
	if !IsCanceled(err) {
		t.Fatalf("got %v, want canceled error", err)
	}
	if got := cb.State(); got != StateHalfOpen {
		t.Fatalf("state = %v, want half-open: cancellation carries no verdict", got)
	}
	if !cb.Allow() {
		t.Error("abandoned trial must free the slot for the next call")
	}
}

func TestCircuitStateString(t *testing.T) {
	tests := []struct {
		state CircuitState
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{CircuitState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
