package session

// Package session implements the process-wide session state machine. It
// bootstraps from the persisted session store, exposes the login, logout,
// and refresh-user transitions, and drives role-based post-login
// redirection. It is the sole read/write authority for the token and
// cached-user keys; consumers only ever see State snapshots.

import (
	"context"
	"log/slog"
	"sync"

	"github.com/salinaworks/salina-go/internal/apierror"
	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
	"github.com/salinaworks/salina-go/internal/service"
	"github.com/salinaworks/salina-go/internal/store"
)

// API is the slice of the auth service the manager drives.
type API interface {
	Login(ctx context.Context, creds service.Credentials) (domainauth.Session, error)
	Logout(ctx context.Context) error
	FetchCurrentUser(ctx context.Context) (domainauth.User, error)
}

// Listener receives state snapshots after every transition.
type Listener func(domainauth.State)

// Manager is the session state machine. All transitions are serialized;
// results of superseded asynchronous calls are fenced by a generation
// counter so only the most recently initiated call can commit state.
type Manager struct {
	api      API
	sessions *store.SessionStore
	logger   *slog.Logger

	mu     sync.Mutex
	state  domainauth.State
	errMsg string
	gen    uint64

	subMu  sync.Mutex
	subs   map[int]Listener
	nextID int
}

// NewManager creates a manager in the uninitialized-loading state.
// Call Initialize to restore any persisted session.
func NewManager(api API, sessions *store.SessionStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		api:      api,
		sessions: sessions,
		logger:   logger,
		state:    domainauth.NewState(nil, "", true),
		subs:     make(map[int]Listener),
	}
}

// State returns the current snapshot.
func (m *Manager) State() domainauth.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the current user-facing error message, or "" when none.
func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// Subscribe registers a listener for state transitions and returns an
// unsubscribe function. Listeners run synchronously after each commit.
func (m *Manager) Subscribe(fn Listener) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// Initialize restores a session from storage. A persisted token with a
// matching cached user yields Authenticated without any network call; a
// token without a readable user is treated as corruption, storage is
// cleared, and the state resolves Unauthenticated.
func (m *Manager) Initialize(ctx context.Context) error {
	token, err := m.sessions.Token(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "session restore failed, starting unauthenticated", "error", err)
		m.commit(domainauth.NewState(nil, "", false), "")
		return nil
	}
	if token == "" {
		m.commit(domainauth.NewState(nil, "", false), "")
		return nil
	}

	user, err := m.sessions.User(ctx)
	if err != nil || user == nil {
		// Corrupted session: token with no matching user record.
		// Self-heal silently by clearing everything.
		if err != nil {
			m.logger.WarnContext(ctx, "cached user unreadable, clearing session", "error", err)
		} else {
			m.logger.WarnContext(ctx, "persisted token without cached user, clearing session")
		}
		if clearErr := m.sessions.ClearAll(ctx); clearErr != nil {
			m.logger.ErrorContext(ctx, "clear corrupted session", "error", clearErr)
		}
		m.commit(domainauth.NewState(nil, "", false), "")
		return nil
	}

	m.commit(domainauth.NewState(user, token, false), "")
	return nil
}

// Login runs the login transition and returns the role-based redirect
// target on success. On failure the state resolves Unauthenticated with a
// user-facing error message, and the classified error is returned to the
// caller as well.
func (m *Manager) Login(ctx context.Context, creds service.Credentials) (string, error) {
	myGen := m.begin()

	sess, err := m.api.Login(ctx, creds)

	m.mu.Lock()
	if m.gen != myGen {
		// A newer transition started while this login was in flight;
		// its result owns the state now.
		authenticated := m.state.IsAuthenticated
		m.mu.Unlock()
		if err != nil {
			return "", err
		}
		// The auth service already persisted this login's tokens. When
		// the winning transition left the session destroyed, those
		// tokens must not survive to the next restore.
		if !authenticated {
			if clearErr := m.sessions.ClearAll(ctx); clearErr != nil {
				m.logger.WarnContext(ctx, "clear superseded login session", "error", clearErr)
			}
		}
		return domainauth.LandingPath(sess.User.Role), nil
	}

	if err != nil {
		msg := loginErrorMessage(err)
		m.state = domainauth.NewState(nil, "", false)
		m.errMsg = msg
		state := m.state
		m.mu.Unlock()
		m.notify(state)
		return "", err
	}

	user := sess.User
	m.state = domainauth.NewState(&user, sess.AccessToken, false)
	m.errMsg = ""
	state := m.state
	m.mu.Unlock()
	m.notify(state)

	return domainauth.LandingPath(user.Role), nil
}

// Logout destroys the session from any state. Local destruction always
// succeeds: storage is cleared and the state resolves Unauthenticated even
// when the remote revocation call fails. Consumers navigate home.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.gen++ // invalidate any in-flight login or refresh
	m.mu.Unlock()

	if err := m.api.Logout(ctx); err != nil {
		m.logger.WarnContext(ctx, "logout cleanup reported error", "error", err)
	}

	m.commit(domainauth.NewState(nil, "", false), "")
}

// RefreshUser re-reads the caller's profile to reconcile stale cached
// data. Any failure is treated as session invalidation and forces the
// logout transition rather than surfacing a transient error.
func (m *Manager) RefreshUser(ctx context.Context) error {
	m.mu.Lock()
	if !m.state.IsAuthenticated {
		m.mu.Unlock()
		return apierror.New(apierror.KindAuthentication)
	}
	m.gen++
	myGen := m.gen
	token := m.state.Token
	m.mu.Unlock()

	user, err := m.api.FetchCurrentUser(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "profile refresh failed, invalidating session", "error", err)
		m.Logout(ctx)
		return err
	}

	m.mu.Lock()
	if m.gen != myGen {
		authenticated := m.state.IsAuthenticated
		m.mu.Unlock()
		// FetchCurrentUser re-cached the profile. A logout that won the
		// race already cleared storage; do not leave the record behind.
		if !authenticated {
			if rmErr := m.sessions.RemoveUser(ctx); rmErr != nil {
				m.logger.WarnContext(ctx, "remove superseded cached user", "error", rmErr)
			}
		}
		return nil
	}
	m.state = domainauth.NewState(&user, token, false)
	state := m.state
	m.mu.Unlock()
	m.notify(state)
	return nil
}

// begin starts a fenced transition: bumps the generation and publishes the
// loading state.
func (m *Manager) begin() uint64 {
	m.mu.Lock()
	m.gen++
	myGen := m.gen
	m.state = domainauth.NewState(nil, "", true)
	m.errMsg = ""
	state := m.state
	m.mu.Unlock()
	m.notify(state)
	return myGen
}

// commit stores a state and error message and notifies subscribers.
func (m *Manager) commit(state domainauth.State, errMsg string) {
	m.mu.Lock()
	m.state = state
	m.errMsg = errMsg
	m.mu.Unlock()
	m.notify(state)
}

func (m *Manager) notify(state domainauth.State) {
	m.subMu.Lock()
	listeners := make([]Listener, 0, len(m.subs))
	for _, fn := range m.subs {
		listeners = append(listeners, fn)
	}
	m.subMu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// loginErrorMessage derives the short user-facing message for a failed
// login without leaking backend internals.
func loginErrorMessage(err error) string {
	if apiErr, ok := apierror.From(err); ok {
		return apiErr.Message
	}
	return apierror.Classify(err).Message
}
