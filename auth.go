package kanbmine

import (
	"context"
	"net/http"
)

const currentUserPath = "/users/current.json"

// Authenticate verifies username/password with Basic credentials against the
// current-user endpoint. The outcome is always expressed as an AuthResult:
// 401 yields a failure with "invalid credentials" (never retried), transport
// failures and other statuses yield "connection error". On success the user's
// API key is installed on the client for subsequent calls.
func (c *Client) Authenticate(ctx context.Context, username, password string) AuthResult {
	header := http.Header{}
	header.Set("Authorization", basicAuthHeader(username, password))

	resp, err := c.send(ctx, http.MethodGet, currentUserPath, header, nil)
	if err != nil {
		return AuthFailure("connection error")
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return AuthFailure("invalid credentials")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return AuthFailure("connection error")
	}

	env, err := decodeEnvelope(resp.Body)
	if err != nil || env.User == nil {
		return AuthFailure("invalid server response")
	}

	user := env.User
	c.SetAPIKey(user.APIKey)
	if c.logger != nil {
		c.logger.Info("user authenticated", "login", user.Login)
	}
	return AuthSuccess(user.APIKey, user)
}

// ValidateAPIKey reports whether the server still accepts apiKey. All errors
// are swallowed as invalid: session checks fail closed.
func (c *Client) ValidateAPIKey(ctx context.Context, apiKey string) bool {
	header := http.Header{}
	header.Set(headerAPIKey, apiKey)

	resp, err := c.send(ctx, http.MethodGet, currentUserPath, header, nil)
	if err != nil {
		return false
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// CurrentUser fetches the account behind the installed API key.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	env, err := c.getEnvelope(ctx, currentUserPath)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, newDecodeError("missing user envelope", nil)
	}
	return env.User, nil
}
