package store

// Package store implements the persisted session store: a typed wrapper over
// a durable key/value substrate holding the access token, optional refresh
// token, and the cached user record. Backends (memory, file, redis,
// postgres) implement ports.KV; consumers only see SessionStore.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/salinaworks/salina-go/internal/apierror"
	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
	"github.com/salinaworks/salina-go/internal/ports"
)

// Storage keys. All live under one prefix so ClearAll can remove the whole
// session in one sweep.
const (
	keyPrefix       = "salina:auth:"
	keyAccessToken  = keyPrefix + "access_token"
	keyRefreshToken = keyPrefix + "refresh_token"
	keyCachedUser   = keyPrefix + "cached_user"
)

// Compile-time conformance of every backend to the KV port.
var (
	_ ports.KV = (*Memory)(nil)
	_ ports.KV = (*File)(nil)
	_ ports.KV = (*Redis)(nil)
	_ ports.KV = (*Postgres)(nil)
)

// SessionStore persists the three session records. Writes are visible to
// subsequent reads within the process; ClearAll leaves no key behind.
type SessionStore struct {
	kv ports.KV
}

// NewSessionStore wraps a key/value backend in the typed session store.
func NewSessionStore(kv ports.KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// Token returns the persisted access token, or "" when none is stored.
func (s *SessionStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, keyAccessToken)
}

// SetToken persists the access token.
func (s *SessionStore) SetToken(ctx context.Context, token string) error {
	return s.set(ctx, keyAccessToken, token)
}

// RefreshToken returns the persisted refresh token, or "" when none is stored.
func (s *SessionStore) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, keyRefreshToken)
}

// SetRefreshToken persists the refresh token.
func (s *SessionStore) SetRefreshToken(ctx context.Context, token string) error {
	return s.set(ctx, keyRefreshToken, token)
}

// User returns the cached user record, or nil when none is stored.
// A record that no longer decodes is reported as an error so the session
// manager can treat it as corruption.
func (s *SessionStore) User(ctx context.Context) (*domainauth.User, error) {
	raw, ok, err := s.kv.Get(ctx, keyCachedUser)
	if err != nil {
		return nil, apierror.MapStoreError(err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var user domainauth.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return &user, nil
}

// SetUser caches the user record.
func (s *SessionStore) SetUser(ctx context.Context, user domainauth.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode cached user: %w", err)
	}
	return s.set(ctx, keyCachedUser, string(data))
}

// RemoveUser drops the cached user record.
func (s *SessionStore) RemoveUser(ctx context.Context) error {
	if err := s.kv.Delete(ctx, keyCachedUser); err != nil {
		return apierror.MapStoreError(err)
	}
	return nil
}

// SaveSession persists all parts of a session. Tokens are written before
// the user record so a partially applied save can never look like a valid
// session with a missing token.
func (s *SessionStore) SaveSession(ctx context.Context, sess domainauth.Session) error {
	if sess.AccessToken == "" {
		return errors.New("session access token cannot be empty")
	}
	if err := s.SetToken(ctx, sess.AccessToken); err != nil {
		return err
	}
	if sess.RefreshToken != "" {
		if err := s.SetRefreshToken(ctx, sess.RefreshToken); err != nil {
			return err
		}
	}
	return s.SetUser(ctx, sess.User)
}

// ClearAll removes every session key. All deletions are attempted even when
// one fails, so no later read can observe a partially cleared session with
// a live token.
func (s *SessionStore) ClearAll(ctx context.Context) error {
	errs := []error{
		s.kv.Delete(ctx, keyAccessToken),
		s.kv.Delete(ctx, keyRefreshToken),
		s.kv.Delete(ctx, keyCachedUser),
	}
	if err := errors.Join(errs...); err != nil {
		return apierror.MapStoreError(err)
	}
	return nil
}

func (s *SessionStore) get(ctx context.Context, key string) (string, error) {
	value, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", apierror.MapStoreError(err)
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

func (s *SessionStore) set(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		return apierror.MapStoreError(err)
	}
	return nil
}
