package kanbmine

import (
	"net/http"
	"testing"
	"time"
)

func TestOptionsApply(t *testing.T) {
	httpClient := &http.Client{Timeout: time.Minute}
	cache := NewMemoryCache()

	c := New("http://redmine.example.com",
		WithHTTPClient(httpClient),
		WithMaxRetries(5),
		WithInitialBackoff(2*time.Second),
		WithMaxBackoff(20*time.Second),
		WithBackoffMultiplier(3.0),
		WithJitter(0.2),
		WithCustomCache(cache, 10*time.Minute),
		WithPageSize(25),
		WithAPIKey(testAPIKey),
	)

	if !c.IsValid() {
		t.Fatalf("configuration invalid: %v", c.ValidationError())
	}
	if c.transport.httpClient != httpClient {
		t.Error("http client not applied")
	}
	if c.retry.maxRetries != 5 || c.retry.initialBackoff != 2*time.Second {
		t.Errorf("retry = %+v", c.retry)
	}
	if c.retry.maxBackoff != 20*time.Second || c.retry.multiplier != 3.0 || c.retry.jitter != 0.2 {
		t.Errorf("retry = %+v", c.retry)
	}
	if c.cache != cache || c.cacheTTL != 10*time.Minute {
		t.Error("cache not applied")
	}
	if c.pageSize != 25 {
		t.Errorf("pageSize = %d", c.pageSize)
	}
	if c.APIKey() != testAPIKey {
		t.Errorf("APIKey = %q", c.APIKey())
	}
}

func TestWithJitterClamps(t *testing.T) {
	c := New("http://redmine.example.com", WithJitter(7))
	if c.retry.jitter != 1 {
		t.Errorf("jitter = %v, want clamped to 1", c.retry.jitter)
	}

	c = New("http://redmine.example.com", WithJitter(-1))
	if c.retry.jitter != 0 {
		t.Errorf("jitter = %v, want clamped to 0", c.retry.jitter)
	}
}

func TestWithTimeout(t *testing.T) {
	c := New("http://redmine.example.com", WithTimeout(5*time.Second))
	if c.transport.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", c.transport.httpClient.Timeout)
	}
}

func TestDefaults(t *testing.T) {
	c := New("http://redmine.example.com")
	if !c.IsValid() {
		t.Fatalf("defaults invalid: %v", c.ValidationError())
	}
	if c.retry.maxRetries != 3 {
		t.Errorf("maxRetries = %d, want 3", c.retry.maxRetries)
	}
	if c.retry.initialBackoff != time.Second || c.retry.maxBackoff != 10*time.Second {
		t.Errorf("backoff = %v/%v", c.retry.initialBackoff, c.retry.maxBackoff)
	}
	if c.breaker.config.FailureThreshold != 5 || c.breaker.config.RecoveryTimeout != 30*time.Second {
		t.Errorf("breaker config = %+v", c.breaker.config)
	}
	if c.cache != nil {
		t.Error("caching is off unless requested")
	}
	if c.limiter != nil {
		t.Error("rate limiting is off unless requested")
	}
	if c.pageSize != 100 {
		t.Errorf("pageSize = %d, want 100", c.pageSize)
	}
	if id := c.requestIDGen(); id == "" || id == c.requestIDGen() {
		t.Error("request IDs should be unique and non-empty")
	}
}
