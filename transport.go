package kanbmine

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
)

// headerAPIKey carries the long-lived API key on every call except login,
// which uses Basic credentials instead.
const headerAPIKey = "X-Redmine-API-Key"

const maxResponseBody = 10 * 1024 * 1024

// Response is the raw outcome of a transport call: status and body, with no
// interpretation applied. HTTP error statuses are returned normally for the
// caller to classify; only connection-level failures become errors.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport issues HTTP requests against a configured base URL. It is the
// innermost stage of the client pipeline; the retry and circuit breaker
// stages wrap it.
type Transport struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewTransport creates a transport for baseURL. A trailing slash on baseURL
// is tolerated. httpClient carries the request timeout.
func NewTransport(baseURL string, httpClient *http.Client) *Transport {
	return &Transport{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "kanbmine-go/" + Version,
	}
}

// Send performs one HTTP request. A connection failure or timeout yields a
// Network ClientError; caller-side cancellation yields a Canceled ClientError.
// Any received HTTP status, including 4xx/5xx, is returned as a Response.
func (t *Transport) Send(ctx context.Context, method, path string, header http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrorTypeNetwork, Message: "cannot build request", Method: method, Endpoint: path, Cause: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ClientError{Type: ErrorTypeCanceled, Message: "request canceled", Method: method, Endpoint: path, Cause: ctx.Err()}
		}
		return nil, &ClientError{Type: ErrorTypeNetwork, Message: "request failed", Method: method, Endpoint: path, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil && !errors.Is(err, io.EOF) {
		if ctx.Err() != nil {
			return nil, &ClientError{Type: ErrorTypeCanceled, Message: "request canceled", Method: method, Endpoint: path, Cause: ctx.Err()}
		}
		return nil, &ClientError{Type: ErrorTypeNetwork, Message: "cannot read response body", Method: method, Endpoint: path, Cause: err}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// basicAuthHeader renders the Authorization value for the login call.
func basicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// endpointFromPath strips the query string, keeping metric label cardinality
// bounded.
func endpointFromPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
