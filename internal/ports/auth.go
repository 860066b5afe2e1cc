package ports

// Package ports defines interfaces (hexagonal ports) for session persistence
// and pluggable authentication. Implementations live in internal/store and
// internal/adapters; orchestration in internal/service and internal/session.

import (
	"context"

	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
)

// KV is the minimal durable key/value substrate behind session persistence.
// Get reports absence through its boolean rather than a sentinel error so
// callers never branch on backend-specific not-found values.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// BeginInput carries inputs for initiating an SSO auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
// It backs the optional SSO login path; password login goes straight through
// the auth service.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}
