// Package kanbmine provides a resilient typed client for the Redmine REST API,
// built for Kanbmine board front ends but usable standalone. It layers several
// reliability primitives around every call:
//
//   - Retries with exponential backoff + jitter for transient failures
//   - Circuit breaker (closed / open / half-open) with a single-trial probe
//   - In-memory TTL cache of decoded results, with namespace invalidation
//   - Optional token-bucket rate limiting
//   - Prometheus metrics and pluggable structured logging
//
// Design goals:
//   - One coherent facade per API capability: callers never see pagination
//     envelopes, auth mechanics, or retry loops
//   - A well-defined error taxonomy: transient network failures, auth
//     failures, server validation errors, decode errors and breaker
//     fast-failures are all distinguishable with errors.Is / errors.As
//   - Safe concurrent use of a single *Client instance
//
// Typical usage:
//
//	client := kanbmine.New("https://redmine.example.com",
//	    kanbmine.WithMaxRetries(3),
//	    kanbmine.WithCache(5*time.Minute),
//	    kanbmine.WithZerolog(log.Logger),
//	)
//	res := client.Authenticate(ctx, "anna", "secret")
//	if !res.Success {
//	    // res.ErrorMessage is safe to show to the user
//	}
//	issues, err := client.ListIssues(ctx, kanbmine.NewIssueFilter())
//
// Session handling (persisting the API key between runs, validating it on
// startup, self-healing stale sessions) lives in Session, which works against
// any CredentialStore implementation; store/sqlitestore ships a file-backed
// one.
package kanbmine
