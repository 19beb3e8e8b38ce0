package kanbmine

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client is the facade over the Redmine REST API. It composes the transport,
// the retry policy, the circuit breaker, the response cache and the envelope
// decoding into one operation per API capability. A single instance is safe
// for concurrent use; each operation is an independent unit of work and
// backoff waits never block other in-flight calls.
type Client struct {
	transport *Transport
	retry     *retryPolicy
	breaker   *CircuitBreaker
	limiter   *RateLimiter

	cache    Cache
	cacheTTL time.Duration

	metrics      *MetricsCollector
	logger       Logger
	requestIDGen func() string

	pageSize int

	mu     sync.RWMutex
	apiKey string

	validationError error
}

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultMultiplier     = 2.0
	defaultJitter         = 0.1
	defaultCacheTTL       = 5 * time.Minute
	defaultPageSize       = 100
)

// New constructs a Client for the Redmine server at baseURL using the
// provided functional options. A best effort validation is performed; call
// IsValid / ValidationError for errors.
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		retry:        newRetryPolicy(defaultMaxRetries, defaultInitialBackoff, defaultMaxBackoff, defaultMultiplier, defaultJitter),
		breaker:      NewCircuitBreaker(CircuitBreakerConfig{}),
		cacheTTL:     defaultCacheTTL,
		pageSize:     defaultPageSize,
		requestIDGen: func() string { return uuid.NewString() },
	}
	httpClient := &http.Client{Timeout: defaultTimeout}
	c.transport = NewTransport(baseURL, httpClient)

	for _, option := range options {
		option(c)
	}

	if err := c.validateConfiguration(baseURL); err != nil {
		c.validationError = err
	}
	return c
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// SetAPIKey installs the long-lived key attached to every non-login call.
// Authenticate calls this automatically on success.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

// APIKey returns the currently installed API key, or "".
func (c *Client) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

func (c *Client) apiKeyHeader() http.Header {
	h := http.Header{}
	if key := c.APIKey(); key != "" {
		h.Set(headerAPIKey, key)
	}
	return h
}

// send runs one logical call through the full pipeline: rate limiter, then
// the retry policy wrapping the breaker-guarded transport.
func (c *Client) send(ctx context.Context, method, path string, header http.Header, body []byte) (*Response, error) {
	endpoint := endpointFromPath(path)
	start := time.Now()

	var requestID string
	if c.logger != nil {
		requestID = c.requestIDGen()
		c.logger.Debug("starting request", "requestID", requestID, "method", method, "endpoint", endpoint)
	}
	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, endpoint)
		defer c.metrics.RecordRequestEnd(method, endpoint)
	}

	if c.limiter != nil {
		allowed := c.limiter.Allow()
		if c.metrics != nil {
			c.metrics.RecordRateLimiterTokens("default", c.limiter.Tokens())
		}
		if !allowed {
			if c.metrics != nil {
				c.metrics.RecordError(ErrorTypeRateLimit, method, endpoint)
			}
			return nil, &ClientError{Type: ErrorTypeRateLimit, Message: "rate limit exceeded", Method: method, Endpoint: endpoint}
		}
	}

	call := func(ctx context.Context) (*Response, error) {
		return c.transport.Send(ctx, method, path, header, body)
	}
	call = c.breaker.Guard(call)

	onRetry := func(attempt int, delay time.Duration) {
		if c.metrics != nil {
			c.metrics.RecordRetry(method, endpoint, attempt)
		}
		if c.logger != nil {
			c.logger.Info("scheduling retry", "requestID", requestID, "attempt", attempt, "backoff", delay, "endpoint", endpoint)
		}
	}

	resp, err := c.retry.Do(ctx, call, onRetry)

	if c.metrics != nil {
		c.metrics.RecordCircuitBreakerState("default", c.breaker.State())
		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}
		c.metrics.RecordRequest(method, endpoint, statusCode, time.Since(start))
		if err != nil {
			if ce, ok := err.(*ClientError); ok {
				c.metrics.RecordError(ce.Type, method, endpoint)
			}
		}
	}
	if err != nil && c.logger != nil {
		c.logger.Warn("request failed", "requestID", requestID, "endpoint", endpoint, "error", err.Error())
	}
	return resp, err
}

// checkStatus classifies a non-2xx response into the error taxonomy. 422
// carries the server's validation message list; 401 is an auth failure;
// everything else, including 5xx that survived the retry policy, is an API
// error.
func (c *Client) checkStatus(resp *Response, method, endpoint string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return &ClientError{Type: ErrorTypeAuth, Message: "authentication rejected", StatusCode: resp.StatusCode, Method: method, Endpoint: endpoint}
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return &ClientError{Type: ErrorTypeValidation, Message: "validation failed", StatusCode: resp.StatusCode, Errors: decodeErrors(resp.Body), Method: method, Endpoint: endpoint}
	default:
		return &ClientError{Type: ErrorTypeAPI, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode), StatusCode: resp.StatusCode, Method: method, Endpoint: endpoint}
	}
}

// getEnvelope is the shared read path: authenticated GET, status check,
// envelope decode.
func (c *Client) getEnvelope(ctx context.Context, path string) (*envelope, error) {
	resp, err := c.send(ctx, http.MethodGet, path, c.apiKeyHeader(), nil)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(resp, http.MethodGet, endpointFromPath(path)); err != nil {
		return nil, err
	}
	return decodeEnvelope(resp.Body)
}

// cacheGet fetches a previously decoded value. Typed accessors assert the
// concrete type; a mismatch counts as a miss.
func (c *Client) cacheGet(key, endpoint string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	v, ok := c.cache.Get(key)
	if c.metrics != nil {
		if ok {
			c.metrics.RecordCacheHit(endpoint)
		} else {
			c.metrics.RecordCacheMiss(endpoint)
		}
	}
	if ok && c.logger != nil {
		c.logger.Debug("cache hit", "cacheKey", key)
	}
	return v, ok
}

func (c *Client) cacheSet(key string, value any, ttl time.Duration) {
	if c.cache == nil {
		return
	}
	c.cache.Set(key, value, ttl)
	if c.metrics != nil {
		if mc, ok := c.cache.(*MemoryCache); ok {
			c.metrics.RecordCacheSize("default", mc.Len())
		}
	}
}

// invalidateIssueCache drops the whole issue namespace. Deliberately coarse:
// any issue write could have staled any cached list, and extra misses are
// cheaper than staleness.
func (c *Client) invalidateIssueCache() {
	if c.cache == nil {
		return
	}
	c.cache.DeletePrefix(cacheNSIssues)
	if c.logger != nil {
		c.logger.Debug("issue cache invalidated")
	}
}

func (c *Client) validateConfiguration(baseURL string) error {
	var problems []string
	if baseURL == "" {
		problems = append(problems, "base URL must not be empty")
	}
	if c.retry.maxRetries < 0 {
		problems = append(problems, "maxRetries must be non-negative")
	}
	if c.retry.initialBackoff <= 0 {
		problems = append(problems, "initialBackoff must be positive")
	}
	if c.retry.maxBackoff < c.retry.initialBackoff {
		problems = append(problems, "maxBackoff must be greater than or equal to initialBackoff")
	}
	if c.retry.multiplier <= 0 {
		problems = append(problems, "backoffMultiplier must be positive")
	}
	if c.retry.jitter < 0 || c.retry.jitter > 1 {
		problems = append(problems, "jitter must be between 0 and 1")
	}
	if c.pageSize <= 0 {
		problems = append(problems, "pageSize must be positive")
	}
	if c.cache != nil && c.cacheTTL <= 0 {
		problems = append(problems, "cacheTTL must be positive when cache is enabled")
	}
	if len(problems) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Errors:  problems,
		}
	}
	return nil
}
