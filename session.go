package kanbmine

import (
	"context"
)

// Storage keys for the persisted session.
const (
	StorageKeyAPIKey = "redmine_api_key"
	StorageKeyUser   = "redmine_user"
)

// CredentialStore is the external key-value store the session persists into
// (browser local storage, a file-backed store, ...). All operations are
// fallible; the session treats any failure as "value absent" and never lets a
// store error escape to the caller.
type CredentialStore interface {
	SetString(ctx context.Context, key, value string) error
	// GetString returns "" for an absent key.
	GetString(ctx context.Context, key string) (string, error)
	SetObject(ctx context.Context, key string, value any) error
	// GetObject decodes the stored value into out and reports whether the
	// key was present.
	GetObject(ctx context.Context, key string, out any) (bool, error)
	Remove(ctx context.Context, key string) error
}

// AuthNotifier is a one-way sink informed after login success and logout so
// the host can rebuild its authentication state. The session never waits on
// or inspects its outcome.
type AuthNotifier interface {
	// AuthenticationChanged receives the new identity, or nil on logout.
	AuthenticationChanged(user *User)
}

// SessionAPI is the slice of the client the session coordinator needs.
// *Client implements it.
type SessionAPI interface {
	Authenticate(ctx context.Context, username, password string) AuthResult
	ValidateAPIKey(ctx context.Context, apiKey string) bool
	SetAPIKey(key string)
}

// Session orchestrates login, logout and authentication checks against the
// API client and the external credential store. It validates a stored key
// against the server on each authentication check and clears the store when
// the key has gone stale.
type Session struct {
	api      SessionAPI
	store    CredentialStore
	notifier AuthNotifier
	logger   Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithNotifier attaches an identity-change sink.
func WithNotifier(n AuthNotifier) SessionOption {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithSessionLogger sets a logger for the session's best-effort paths.
func WithSessionLogger(l Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession creates a session coordinator over api and store.
func NewSession(api SessionAPI, store CredentialStore, opts ...SessionOption) *Session {
	s := &Session{api: api, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates and, on success, persists the API key and user snapshot.
// A persistence failure turns the login into a failure result; nothing is
// ever thrown past this boundary.
func (s *Session) Login(ctx context.Context, username, password string) AuthResult {
	res := s.api.Authenticate(ctx, username, password)
	if !res.Success || res.User == nil {
		return res
	}

	if err := s.store.SetString(ctx, StorageKeyAPIKey, res.APIKey); err != nil {
		s.logError("cannot persist api key", err)
		return AuthFailure("failed to persist session")
	}
	if err := s.store.SetObject(ctx, StorageKeyUser, res.User); err != nil {
		s.logError("cannot persist user", err)
		return AuthFailure("failed to persist session")
	}

	if s.notifier != nil {
		s.notifier.AuthenticationChanged(res.User)
	}
	if s.logger != nil {
		s.logger.Info("session persisted", "login", username)
	}
	return res
}

// Logout removes both stored values. Failures are logged, never propagated:
// from the caller's perspective logout always succeeds.
func (s *Session) Logout(ctx context.Context) {
	if err := s.store.Remove(ctx, StorageKeyAPIKey); err != nil {
		s.logError("cannot remove api key", err)
	}
	if err := s.store.Remove(ctx, StorageKeyUser); err != nil {
		s.logError("cannot remove user", err)
	}
	s.api.SetAPIKey("")
	if s.notifier != nil {
		s.notifier.AuthenticationChanged(nil)
	}
}

// IsAuthenticated reports whether a stored API key exists and the server
// still accepts it. A stale key triggers a Logout side effect before
// returning false, so the store self-heals.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	apiKey, err := s.store.GetString(ctx, StorageKeyAPIKey)
	if err != nil || apiKey == "" {
		return false
	}

	if !s.api.ValidateAPIKey(ctx, apiKey) {
		s.Logout(ctx)
		return false
	}

	// Restore the key on the client so a host restart resumes the session.
	s.api.SetAPIKey(apiKey)
	return true
}

// CurrentUser returns the stored user snapshot, or nil when absent or on any
// store failure.
func (s *Session) CurrentUser(ctx context.Context) *User {
	var user User
	ok, err := s.store.GetObject(ctx, StorageKeyUser, &user)
	if err != nil || !ok {
		return nil
	}
	return &user
}

// CurrentAPIKey returns the stored API key, or "" when absent or on any
// store failure.
func (s *Session) CurrentAPIKey(ctx context.Context) string {
	apiKey, err := s.store.GetString(ctx, StorageKeyAPIKey)
	if err != nil {
		return ""
	}
	return apiKey
}

func (s *Session) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "error", err.Error())
	}
}
