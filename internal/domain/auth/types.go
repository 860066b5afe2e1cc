package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of transport/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Values match the backend wire strings exactly.
type Role string

const (
	RoleSuperAdmin  Role = "SUPERADMIN"
	RoleAdmin       Role = "ADMIN"
	RoleSaltSociety Role = "SALTSOCIETY"
	RoleSeller      Role = "SELLER"
	RoleLandowner   Role = "LANDOWNER"
)

// Roles returns all valid roles in a stable order.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleSaltSociety, RoleSeller, RoleLandowner}
}

// ParseRole converts a wire string into a Role.
// The second return value reports whether the string is a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleSaltSociety, RoleSeller, RoleLandowner:
		return Role(s), true
	default:
		return "", false
	}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Landing paths for role-based post-login redirection.
const (
	PathHome            = "/"
	PathLogin           = "/login"
	PathUnauthorized    = "/unauthorized"
	PathInspection      = "/inspection"
	PathProduction      = "/production"
	PathSellerMarket    = "/marketplace/seller"
	PathLandownerMarket = "/marketplace/landowner"
)

// LandingPath returns the dashboard entry point for a role after login.
// The switch is exhaustive over the closed role set; anything else lands home.
func LandingPath(r Role) string {
	switch r {
	case RoleSuperAdmin, RoleAdmin:
		return PathInspection
	case RoleSaltSociety:
		return PathProduction
	case RoleSeller:
		return PathSellerMarket
	case RoleLandowner:
		return PathLandownerMarket
	default:
		return PathHome
	}
}

// User is the authenticated principal as returned by the backend.
// Immutable once fetched except by an explicit profile refresh.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject   string // stable user identifier (e.g., sub claim)
	Email     string
	Name      string
	Groups    []string
	Token     string    // bearer token issued by the IdP
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session pairs an authenticated user with a live access token.
// RefreshToken may be empty when the backend did not issue one.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         User   `json:"user"`
}

// State is the in-memory representation of session status consumed by
// everything outside the session manager.
//
// Invariant: IsAuthenticated == (User != nil && Token != "").
type State struct {
	User            *User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

// NewState derives a State from its parts, enforcing the invariant.
func NewState(user *User, token string, loading bool) State {
	return State{
		User:            user,
		Token:           token,
		IsAuthenticated: user != nil && token != "",
		IsLoading:       loading,
	}
}
