package testutil

import (
	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
)

// UserBuilder provides a fluent interface for building User values for testing.
type UserBuilder struct {
	user domainauth.User
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		user: domainauth.User{
			ID:    "u-test",
			Email: "tester@salina.example",
			Name:  "Test User",
			Role:  domainauth.RoleSaltSociety,
		},
	}
}

// WithID sets the user ID.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.user.ID = id
	return b
}

// WithEmail sets the user email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// WithRole sets the user role.
func (b *UserBuilder) WithRole(role domainauth.Role) *UserBuilder {
	b.user.Role = role
	return b
}

// Build returns the constructed user.
func (b *UserBuilder) Build() domainauth.User {
	return b.user
}

// SessionBuilder provides a fluent interface for building Session values
// for testing.
type SessionBuilder struct {
	sess domainauth.Session
}

// NewSession creates a SessionBuilder with sensible defaults.
func NewSession() *SessionBuilder {
	return &SessionBuilder{
		sess: domainauth.Session{
			AccessToken:  "access-test",
			RefreshToken: "refresh-test",
			User:         NewUser().Build(),
		},
	}
}

// WithAccessToken sets the access token.
func (b *SessionBuilder) WithAccessToken(token string) *SessionBuilder {
	b.sess.AccessToken = token
	return b
}

// WithRefreshToken sets the refresh token.
func (b *SessionBuilder) WithRefreshToken(token string) *SessionBuilder {
	b.sess.RefreshToken = token
	return b
}

// WithUser sets the session user.
func (b *SessionBuilder) WithUser(user domainauth.User) *SessionBuilder {
	b.sess.User = user
	return b
}

// Build returns the constructed session.
func (b *SessionBuilder) Build() domainauth.Session {
	return b.sess
}
