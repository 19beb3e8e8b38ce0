package kanbmine

import (
	"context"
	"time"

	"github.com/ArmentaBautista/Kanbmine/internal/backoff"
)

// callFunc is one stage of the request pipeline. The retry policy and the
// circuit breaker compose as wrappers around the transport's call.
type callFunc func(ctx context.Context) (*Response, error)

// retryPolicy re-issues a call on transient failures with exponential
// backoff. Waiting happens in the calling goroutine only; concurrent
// operations are never blocked by another call's backoff.
type retryPolicy struct {
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitter         float64

	// sleep is replaceable in tests for deterministic timing.
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryPolicy(maxRetries int, initial, max time.Duration, multiplier, jitter float64) *retryPolicy {
	return &retryPolicy{
		maxRetries:     maxRetries,
		initialBackoff: initial,
		maxBackoff:     max,
		multiplier:     multiplier,
		jitter:         jitter,
		sleep:          sleepContext,
	}
}

// Do runs call until it succeeds, fails non-transiently, or maxRetries
// re-attempts are spent (maxRetries+1 calls total). onRetry, when non-nil, is
// invoked before each re-attempt. Cancellation during backoff abandons the
// remaining attempts with a Canceled error.
func (p *retryPolicy) Do(ctx context.Context, call callFunc, onRetry func(attempt int, delay time.Duration)) (*Response, error) {
	var (
		resp *Response
		err  error
	)
	for attempt := 0; ; attempt++ {
		resp, err = call(ctx)

		if !retryable(resp, err) || attempt >= p.maxRetries {
			break
		}

		delay := backoff.Delay(attempt, p.initialBackoff, p.maxBackoff, p.multiplier, p.jitter)
		if onRetry != nil {
			onRetry(attempt+1, delay)
		}
		if serr := p.sleep(ctx, delay); serr != nil {
			return nil, &ClientError{Type: ErrorTypeCanceled, Message: "canceled during retry backoff", Attempt: attempt, Cause: serr}
		}
	}

	if err != nil && IsTransient(err) {
		// Retries exhausted on a connection-level failure.
		return nil, &ClientError{Type: ErrorTypeNetwork, Message: "connection error", Attempt: p.maxRetries, Cause: err}
	}
	return resp, err
}

// retryable reports whether the outcome is a transient failure: a network
// error or a 5xx response. Circuit-open, rate-limit and cancellation errors
// are deliberate fast failures and must not spin the retry loop.
func retryable(resp *Response, err error) bool {
	if err != nil {
		return IsTransient(err)
	}
	return resp != nil && resp.StatusCode >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
