package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
)

func newTestStore(t *testing.T) (*SessionStore, *Memory) {
	t.Helper()
	kv := NewMemory()
	return NewSessionStore(kv), kv
}

func TestSessionStore_TokenRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "fresh store has no token")

	require.NoError(t, s.SetToken(ctx, "access-1"))
	require.NoError(t, s.SetRefreshToken(ctx, "refresh-1"))

	token, err = s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)

	refresh, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", refresh)
}

func TestSessionStore_UserRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	user, err := s.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	want := domainauth.User{ID: "u1", Email: "sel@example.com", Name: "Sel", Role: domainauth.RoleSeller}
	require.NoError(t, s.SetUser(ctx, want))

	user, err = s.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, want, *user)

	require.NoError(t, s.RemoveUser(ctx))
	user, err = s.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSessionStore_CorruptedUserRecord(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, keyCachedUser, "{not json"))

	user, err := s.User(ctx)
	assert.Nil(t, user)
	assert.Error(t, err, "undecodable cached user must surface as an error")
}

func TestSessionStore_SaveSession(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	sess := domainauth.Session{
		AccessToken:  "at",
		RefreshToken: "rt",
		User:         domainauth.User{ID: "u2", Email: "l@example.com", Name: "Lan", Role: domainauth.RoleLandowner},
	}
	require.NoError(t, s.SaveSession(ctx, sess))

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at", token)
	refresh, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rt", refresh)
	user, err := s.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, sess.User, *user)
}

func TestSessionStore_SaveSession_RequiresToken(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.SaveSession(context.Background(), domainauth.Session{})
	assert.Error(t, err)
}

func TestSessionStore_ClearAll(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetToken(ctx, "at"))
	require.NoError(t, s.SetRefreshToken(ctx, "rt"))
	require.NoError(t, s.SetUser(ctx, domainauth.User{ID: "u3", Role: domainauth.RoleAdmin}))

	require.NoError(t, s.ClearAll(ctx))

	assert.Zero(t, kv.Len(), "ClearAll must leave no key behind")

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	user, err := s.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}
