package kanbmine

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client at construction.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.transport.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.transport.httpClient.Timeout = d
	}
}

// WithMaxRetries sets the maximum number of retry attempts; a call makes at
// most n+1 transport attempts.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.retry.maxRetries = n
	}
}

// WithInitialBackoff sets the delay before the first retry.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.retry.initialBackoff = d
	}
}

// WithMaxBackoff caps the backoff delay.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.retry.maxBackoff = d
	}
}

// WithBackoffMultiplier sets the exponential growth factor between retries.
func WithBackoffMultiplier(f float64) Option {
	return func(c *Client) {
		c.retry.multiplier = f
	}
}

// WithJitter sets the jitter fraction for backoff (clamped to 0.0 to 1.0).
func WithJitter(f float64) Option {
	return func(c *Client) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		c.retry.jitter = f
	}
}

// WithCircuitBreaker sets the circuit breaker configuration.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.breaker = NewCircuitBreaker(config)
	}
}

// WithRateLimiter enables token-bucket rate limiting of outgoing calls.
func WithRateLimiter(maxTokens int, refillRate time.Duration) Option {
	return func(c *Client) {
		c.limiter = NewRateLimiter(maxTokens, refillRate)
	}
}

// WithCache enables read-through caching of decoded results with the default
// in-memory cache. ttl applies to volatile data (issues, projects); the
// status list is cached until process restart regardless.
func WithCache(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = NewMemoryCache()
		c.cacheTTL = ttl
	}
}

// WithCustomCache sets a custom cache implementation.
func WithCustomCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets a logger for structured debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithZerolog sets a zerolog-backed logger.
func WithZerolog(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = NewZerologLogger(l)
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
// used in debug logs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.requestIDGen = gen
	}
}

// WithPageSize sets the fallback page size for list calls that leave the
// limit unset.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithAPIKey installs an API key at construction, for callers restoring a
// persisted session without going through Authenticate.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}
