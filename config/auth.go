package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModePassword authenticates directly against the backend.
	AuthModePassword AuthMode = "password"
	// AuthModeOAuth uses OAuth/OIDC single sign-on.
	AuthModeOAuth AuthMode = "oauth"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "password", "oauth":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, oauth)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"salina-dashboard"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// RoleGroupsConfig maps IdP group names onto application roles. Only used
// when Mode=oauth; password login receives the role from the backend.
type RoleGroupsConfig struct {
	SuperAdmin  string `env:"SUPERADMIN_GROUP"`
	Admin       string `env:"ADMIN_GROUP"`
	SaltSociety string `env:"SALTSOCIETY_GROUP"`
	Seller      string `env:"SELLER_GROUP"`
	Landowner   string `env:"LANDOWNER_GROUP"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which login path the application uses.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// Roles maps IdP groups to application roles (used when Mode=oauth).
	Roles RoleGroupsConfig `envPrefix:"ROLE_"`
}
