package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salinaworks/salina-go/internal/apierror"
	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
	"github.com/salinaworks/salina-go/internal/service"
	"github.com/salinaworks/salina-go/internal/store"
)

// fakeAPI is a func-field test double for the auth service slice the
// manager drives.
type fakeAPI struct {
	loginFunc func(ctx context.Context, creds service.Credentials) (domainauth.Session, error)
	logoutErr error
	meFunc    func(ctx context.Context) (domainauth.User, error)

	mu          sync.Mutex
	loginCalls  int
	logoutCalls int
	meCalls     int
	meUser      domainauth.User
	meErr       error
}

func (f *fakeAPI) Login(ctx context.Context, creds service.Credentials) (domainauth.Session, error) {
	f.mu.Lock()
	f.loginCalls++
	f.mu.Unlock()
	if f.loginFunc != nil {
		return f.loginFunc(ctx, creds)
	}
	return domainauth.Session{}, errors.New("loginFunc not set")
}

func (f *fakeAPI) Logout(context.Context) error {
	f.mu.Lock()
	f.logoutCalls++
	f.mu.Unlock()
	return f.logoutErr
}

func (f *fakeAPI) FetchCurrentUser(ctx context.Context) (domainauth.User, error) {
	f.mu.Lock()
	f.meCalls++
	f.mu.Unlock()
	if f.meFunc != nil {
		return f.meFunc(ctx)
	}
	if f.meErr != nil {
		return domainauth.User{}, f.meErr
	}
	return f.meUser, nil
}

func (f *fakeAPI) calls() (login, logout, me int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.logoutCalls, f.meCalls
}

func sessionFor(role domainauth.Role) domainauth.Session {
	return domainauth.Session{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		User:         domainauth.User{ID: "u1", Email: "u@example.com", Name: "U", Role: role},
	}
}

func newFixture(t *testing.T) (*Manager, *fakeAPI, *store.SessionStore) {
	t.Helper()
	api := &fakeAPI{}
	sessions := store.NewSessionStore(store.NewMemory())
	m := NewManager(api, sessions, nil)
	return m, api, sessions
}

func TestManager_InitialStateIsLoading(t *testing.T) {
	m, _, _ := newFixture(t)
	state := m.State()
	assert.True(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated)
}

func TestManager_Initialize_NoToken(t *testing.T) {
	m, api, _ := newFixture(t)

	require.NoError(t, m.Initialize(context.Background()))

	state := m.State()
	assert.False(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated)

	login, _, me := api.calls()
	assert.Zero(t, login)
	assert.Zero(t, me)
}

func TestManager_Initialize_OptimisticRestore(t *testing.T) {
	m, api, sessions := newFixture(t)
	ctx := context.Background()

	require.NoError(t, sessions.SaveSession(ctx, sessionFor(domainauth.RoleAdmin)))

	require.NoError(t, m.Initialize(ctx))

	state := m.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "at-1", state.Token)
	require.NotNil(t, state.User)
	assert.Equal(t, domainauth.RoleAdmin, state.User.Role)

	// Restore is purely local.
	login, logout, me := api.calls()
	assert.Zero(t, login+logout+me)
}

func TestManager_Initialize_CorruptedSession(t *testing.T) {
	m, _, sessions := newFixture(t)
	ctx := context.Background()

	// Token present but no cached user.
	require.NoError(t, sessions.SetToken(ctx, "orphan-token"))

	require.NoError(t, m.Initialize(ctx))

	state := m.State()
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)

	// Storage is fully cleared, not just the user key.
	token, err := sessions.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestManager_Login_Success(t *testing.T) {
	tests := []struct {
		role domainauth.Role
		want string
	}{
		{domainauth.RoleSuperAdmin, domainauth.PathInspection},
		{domainauth.RoleAdmin, domainauth.PathInspection},
		{domainauth.RoleSaltSociety, domainauth.PathProduction},
		{domainauth.RoleSeller, domainauth.PathSellerMarket},
		{domainauth.RoleLandowner, domainauth.PathLandownerMarket},
		{domainauth.Role("FUTURE"), domainauth.PathHome},
	}

	for _, tt := range tests {
		m, api, _ := newFixture(t)
		api.loginFunc = func(context.Context, service.Credentials) (domainauth.Session, error) {
			return sessionFor(tt.role), nil
		}

		var sawLoading bool
		unsub := m.Subscribe(func(s domainauth.State) {
			if s.IsLoading {
				sawLoading = true
			}
		})

		redirect, err := m.Login(context.Background(), service.Credentials{Email: "e", Password: "p"})
		unsub()

		require.NoError(t, err, "role %s", tt.role)
		assert.Equal(t, tt.want, redirect, "role %s", tt.role)
		assert.True(t, sawLoading, "login must pass through the loading state")

		state := m.State()
		assert.True(t, state.IsAuthenticated)
		assert.Empty(t, m.Err())
	}
}

func TestManager_Login_Failure(t *testing.T) {
	m, api, _ := newFixture(t)
	api.loginFunc = func(context.Context, service.Credentials) (domainauth.Session, error) {
		return domainauth.Session{}, apierror.New(apierror.KindAuthentication)
	}

	_, err := m.Login(context.Background(), service.Credentials{Email: "e", Password: "bad"})
	require.Error(t, err, "classified error is rethrown to the caller")
	assert.True(t, apierror.IsAuthentication(err))

	state := m.State()
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.NotEmpty(t, m.Err(), "login failure surfaces a user-facing message")
}

func TestManager_Logout_AlwaysSucceedsLocally(t *testing.T) {
	m, api, sessions := newFixture(t)
	ctx := context.Background()

	require.NoError(t, sessions.SaveSession(ctx, sessionFor(domainauth.RoleSeller)))
	require.NoError(t, m.Initialize(ctx))
	require.True(t, m.State().IsAuthenticated)

	api.logoutErr = apierror.New(apierror.KindServer)

	m.Logout(ctx)

	state := m.State()
	assert.False(t, state.IsAuthenticated)
	assert.Empty(t, m.Err())

	_, logout, _ := api.calls()
	assert.Equal(t, 1, logout)
}

func TestManager_RefreshUser_Success(t *testing.T) {
	m, api, sessions := newFixture(t)
	ctx := context.Background()

	require.NoError(t, sessions.SaveSession(ctx, sessionFor(domainauth.RoleLandowner)))
	require.NoError(t, m.Initialize(ctx))

	api.meUser = domainauth.User{ID: "u1", Email: "u@example.com", Name: "Updated", Role: domainauth.RoleLandowner}

	require.NoError(t, m.RefreshUser(ctx))

	state := m.State()
	require.NotNil(t, state.User)
	assert.Equal(t, "Updated", state.User.Name)
	assert.Equal(t, "at-1", state.Token, "token survives a profile refresh")
}

func TestManager_RefreshUser_FailureForcesLogout(t *testing.T) {
	m, api, sessions := newFixture(t)
	ctx := context.Background()

	require.NoError(t, sessions.SaveSession(ctx, sessionFor(domainauth.RoleSaltSociety)))
	require.NoError(t, m.Initialize(ctx))

	api.meErr = apierror.New(apierror.KindAuthentication)

	err := m.RefreshUser(ctx)
	require.Error(t, err)

	state := m.State()
	assert.False(t, state.IsAuthenticated, "refresh failure invalidates the session")

	_, logout, _ := api.calls()
	assert.Equal(t, 1, logout)
}

func TestManager_RefreshUser_Unauthenticated(t *testing.T) {
	m, _, _ := newFixture(t)
	require.NoError(t, m.Initialize(context.Background()))

	err := m.RefreshUser(context.Background())
	require.Error(t, err)
	assert.True(t, apierror.IsAuthentication(err))
}

func TestManager_OverlappingLogins_LaterStartedWins(t *testing.T) {
	m, api, _ := newFixture(t)

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	var calls int
	var callMu sync.Mutex
	api.loginFunc = func(context.Context, service.Credentials) (domainauth.Session, error) {
		callMu.Lock()
		calls++
		mine := calls
		callMu.Unlock()

		if mine == 1 {
			close(firstStarted)
			<-releaseFirst // first call resolves last
			return sessionFor(domainauth.RoleSeller), nil
		}
		return sessionFor(domainauth.RoleAdmin), nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Login(context.Background(), service.Credentials{Email: "first", Password: "p"})
	}()

	<-firstStarted

	// Second login starts while the first is still in flight and
	// completes immediately.
	redirect, err := m.Login(context.Background(), service.Credentials{Email: "second", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.PathInspection, redirect)

	close(releaseFirst)
	wg.Wait()

	// The stale first result must not have overwritten the second.
	state := m.State()
	require.NotNil(t, state.User)
	assert.Equal(t, domainauth.RoleAdmin, state.User.Role)
}

func TestManager_LogoutDuringLogin_DoesNotResurrectSession(t *testing.T) {
	m, api, sessions := newFixture(t)
	ctx := context.Background()

	loginStarted := make(chan struct{})
	releaseLogin := make(chan struct{})

	api.loginFunc = func(ctx context.Context, _ service.Credentials) (domainauth.Session, error) {
		close(loginStarted)
		<-releaseLogin
		// The auth service persists the session before returning; model
		// that write here so it lands after the logout cleared storage.
		sess := sessionFor(domainauth.RoleSeller)
		sess.AccessToken = "at-late"
		if err := sessions.SaveSession(ctx, sess); err != nil {
			return domainauth.Session{}, err
		}
		return sess, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Login(ctx, service.Credentials{Email: "e", Password: "p"})
	}()

	<-loginStarted
	m.Logout(ctx)
	close(releaseLogin)
	wg.Wait()

	state := m.State()
	assert.False(t, state.IsAuthenticated)

	// The next restore must not find tokens the superseded login wrote.
	token, err := sessions.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	user, err := sessions.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestManager_LogoutDuringRefreshUser_DropsRecachedProfile(t *testing.T) {
	m, api, sessions := newFixture(t)
	ctx := context.Background()

	require.NoError(t, sessions.SaveSession(ctx, sessionFor(domainauth.RoleAdmin)))
	require.NoError(t, m.Initialize(ctx))

	meStarted := make(chan struct{})
	releaseMe := make(chan struct{})
	api.meFunc = func(ctx context.Context) (domainauth.User, error) {
		close(meStarted)
		<-releaseMe
		user := sessionFor(domainauth.RoleAdmin).User
		if err := sessions.SetUser(ctx, user); err != nil {
			return domainauth.User{}, err
		}
		return user, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.RefreshUser(ctx)
	}()

	<-meStarted
	m.Logout(ctx)
	close(releaseMe)
	wg.Wait()

	assert.False(t, m.State().IsAuthenticated)
	user, err := sessions.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user, "a destroyed session must not keep a cached profile")
}

func TestManager_SubscribeUnsubscribe(t *testing.T) {
	m, _, _ := newFixture(t)

	var notified int
	unsub := m.Subscribe(func(domainauth.State) { notified++ })

	require.NoError(t, m.Initialize(context.Background()))
	assert.Equal(t, 1, notified)

	unsub()
	m.Logout(context.Background())
	assert.Equal(t, 1, notified, "unsubscribed listeners stay silent")
}
