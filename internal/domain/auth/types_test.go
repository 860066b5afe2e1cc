package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		parsed, ok := ParseRole(string(r))
		require.True(t, ok, "role %s should parse", r)
		assert.Equal(t, r, parsed)
	}

	for _, s := range []string{"", "admin", "superadmin", "OPERATOR", "SALT SOCIETY"} {
		_, ok := ParseRole(s)
		assert.False(t, ok, "%q should not parse", s)
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleSaltSociety.Valid())
	assert.False(t, Role("VISITOR").Valid())
}

func TestLandingPath(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleSuperAdmin, PathInspection},
		{RoleAdmin, PathInspection},
		{RoleSaltSociety, PathProduction},
		{RoleSeller, PathSellerMarket},
		{RoleLandowner, PathLandownerMarket},
		{Role("SOMETHING_NEW"), PathHome},
		{Role(""), PathHome},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LandingPath(tt.role), "role %q", tt.role)
	}
}

func TestNewState_Invariant(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.c", Name: "A", Role: RoleAdmin}

	s := NewState(u, "tok", false)
	assert.True(t, s.IsAuthenticated)

	// Missing either half of the pair means not authenticated.
	assert.False(t, NewState(u, "", false).IsAuthenticated)
	assert.False(t, NewState(nil, "tok", false).IsAuthenticated)
	assert.False(t, NewState(nil, "", true).IsAuthenticated)
}
