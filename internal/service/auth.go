package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/salinaworks/salina-go/internal/apiclient"
	"github.com/salinaworks/salina-go/internal/apierror"
	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
	"github.com/salinaworks/salina-go/internal/ports"
	"github.com/salinaworks/salina-go/internal/store"
)

// Credentials are the password-login inputs.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthAPI exposes the backend auth operations on top of the request
// executor. It owns the persistence side effects: login and refresh write
// tokens and the user record; logout clears them even when the remote call
// fails. Errors arrive already classified and propagate unchanged.
type AuthAPI struct {
	client   *apiclient.Client
	sessions *store.SessionStore
	logger   *slog.Logger
}

// NewAuthAPI constructs the auth service and wires itself into the client
// as the refresh-on-401 hook.
func NewAuthAPI(client *apiclient.Client, sessions *store.SessionStore, logger *slog.Logger) *AuthAPI {
	if logger == nil {
		logger = slog.Default()
	}
	a := &AuthAPI{
		client:   client,
		sessions: sessions,
		logger:   logger,
	}
	client.SetRefresher(a)
	return a
}

var _ apiclient.Refresher = (*AuthAPI)(nil)

type loginResponse struct {
	User         domainauth.User `json:"user"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

// Login exchanges credentials for a session and persists both tokens and
// the user record before returning.
func (a *AuthAPI) Login(ctx context.Context, creds Credentials) (domainauth.Session, error) {
	if creds.Email == "" || creds.Password == "" {
		apiErr := apierror.New(apierror.KindValidation)
		apiErr.Details = "email and password are required"
		return domainauth.Session{}, apiErr
	}

	resp, err := apiclient.Do[loginResponse](ctx, a.client, http.MethodPost, "/auth/login", creds,
		apiclient.WithoutAuthRetry())
	if err != nil {
		return domainauth.Session{}, err
	}

	sess := domainauth.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}
	if err := a.sessions.SaveSession(ctx, sess); err != nil {
		return domainauth.Session{}, err
	}
	return sess, nil
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Logout tells the backend to revoke the session, then clears persisted
// state. The remote call is best effort: its failure is logged and local
// destruction proceeds regardless.
func (a *AuthAPI) Logout(ctx context.Context) error {
	refresh, err := a.sessions.RefreshToken(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "read refresh token before logout", "error", err)
	}

	remoteErr := a.client.Do(ctx, http.MethodPost, "/auth/logout", logoutRequest{RefreshToken: refresh}, nil,
		apiclient.WithoutAuthRetry())
	if remoteErr != nil {
		a.logger.WarnContext(ctx, "remote logout failed, clearing local session anyway", "error", remoteErr)
	}

	return a.sessions.ClearAll(ctx)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshAccessToken exchanges the persisted refresh token for a new access
// token and persists the result. It fails with AUTHENTICATION when no
// refresh token is available.
func (a *AuthAPI) RefreshAccessToken(ctx context.Context) (string, error) {
	refresh, err := a.sessions.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if refresh == "" {
		return "", apierror.New(apierror.KindAuthentication)
	}

	resp, err := apiclient.Do[refreshResponse](ctx, a.client, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refresh},
		apiclient.WithoutAuthRetry())
	if err != nil {
		return "", err
	}

	if err := a.sessions.SetToken(ctx, resp.Token); err != nil {
		return "", err
	}
	if resp.RefreshToken != "" {
		if err := a.sessions.SetRefreshToken(ctx, resp.RefreshToken); err != nil {
			return "", err
		}
	}
	return resp.Token, nil
}

// FetchCurrentUser reads the caller's profile and refreshes the cached user
// record so a later optimistic restore starts from fresh data.
func (a *AuthAPI) FetchCurrentUser(ctx context.Context) (domainauth.User, error) {
	user, err := apiclient.Do[domainauth.User](ctx, a.client, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return domainauth.User{}, err
	}
	if err := a.sessions.SetUser(ctx, user); err != nil {
		return domainauth.User{}, err
	}
	return user, nil
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

// ValidateToken asks the backend whether a token is still valid.
func (a *AuthAPI) ValidateToken(ctx context.Context, token string) (bool, error) {
	resp, err := apiclient.Do[validateResponse](ctx, a.client, http.MethodPost, "/auth/validate", validateRequest{Token: token},
		apiclient.WithoutAuthRetry())
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// LoginWithProvider completes an SSO flow: the provider's identity becomes
// the session, with groups mapped onto an application role. Used by
// deployments that front the backend with an IdP instead of password login.
func (a *AuthAPI) LoginWithProvider(ctx context.Context, provider ports.AuthProvider, roles ports.RoleMapper, in ports.ExchangeInput) (domainauth.Session, error) {
	identity, err := provider.Exchange(ctx, in)
	if err != nil {
		return domainauth.Session{}, apierror.Classify(err)
	}

	sess := domainauth.Session{
		AccessToken: identity.Token,
		User: domainauth.User{
			ID:    identity.Subject,
			Email: identity.Email,
			Name:  identity.Name,
			Role:  roles.Map(identity.Groups),
		},
	}
	if err := a.sessions.SaveSession(ctx, sess); err != nil {
		return domainauth.Session{}, err
	}
	return sess, nil
}
