package kanbmine

import (
	"context"
	"sync"
	"time"
)

// CircuitState is the state of the circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds circuit breaker thresholds. The zero value gets
// the defaults: open after 5 consecutive transient failures, cool down for
// 30 seconds.
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// CircuitBreaker guards the transport: after FailureThreshold consecutive
// transient failures it opens for RecoveryTimeout, failing calls fast without
// a network attempt. After the cool-down a single trial call is let through;
// its outcome closes or reopens the circuit. Safe for concurrent use.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	// now is replaceable in tests to step through the cool-down window.
	now func() time.Time

	mu            sync.Mutex
	state         CircuitState
	failures      int
	lastFailure   time.Time
	trialInFlight bool
}

// NewCircuitBreaker creates a circuit breaker, applying defaults for zero
// config fields.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Allow reports whether a call may proceed. In the half-open state only one
// trial call is admitted at a time.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.config.RecoveryTimeout {
			cb.state = StateHalfOpen
			cb.trialInFlight = true
			return true
		}
		return false
	case StateHalfOpen:
		if cb.trialInFlight {
			return false
		}
		cb.trialInFlight = true
		return true
	default:
		return false
	}
}

// RecordFailure notes a transient failure. In the closed state it counts
// toward the threshold; in the half-open state it reopens the circuit.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.now()
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		cb.state = StateOpen
		cb.trialInFlight = false
	}
}

// RecordSuccess resets the consecutive-failure count; a successful half-open
// trial closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.state = StateClosed
		cb.failures = 0
		cb.trialInFlight = false
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Guard wraps call with the breaker: open-circuit fast failure, and outcome
// recording per attempt. Cancellation counts as neither success nor failure.
func (cb *CircuitBreaker) Guard(call callFunc) callFunc {
	return func(ctx context.Context) (*Response, error) {
		if !cb.Allow() {
			return nil, &ClientError{Type: ErrorTypeCircuitOpen, Message: "circuit breaker is open"}
		}
		resp, err := call(ctx)
		switch {
		case err != nil && IsTransient(err):
			cb.RecordFailure()
		case err != nil:
			if IsCanceled(err) {
				cb.abandonTrial()
			}
		case resp.StatusCode >= 500:
			cb.RecordFailure()
		default:
			cb.RecordSuccess()
		}
		return resp, err
	}
}

// abandonTrial frees the half-open trial slot when its call was canceled
// before producing a verdict.
func (cb *CircuitBreaker) abandonTrial() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen {
		cb.trialInFlight = false
	}
}
