package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
)

func TestStaticRoleMapper(t *testing.T) {
	mapper := StaticRoleMapper{
		SuperAdminGroup:  "salina-superadmins",
		AdminGroup:       "salina-admins",
		SaltSocietyGroup: "salina-societies",
		SellerGroup:      "salina-sellers",
		LandownerGroup:   "salina-landowners",
	}

	tests := []struct {
		name   string
		groups []string
		want   domainauth.Role
	}{
		{"superadmin", []string{"salina-superadmins"}, domainauth.RoleSuperAdmin},
		{"admin", []string{"salina-admins"}, domainauth.RoleAdmin},
		{"society", []string{"salina-societies"}, domainauth.RoleSaltSociety},
		{"seller", []string{"unrelated", "salina-sellers"}, domainauth.RoleSeller},
		{"landowner", []string{"salina-landowners"}, domainauth.RoleLandowner},
		{"highest privilege wins", []string{"salina-landowners", "salina-admins"}, domainauth.RoleAdmin},
		{"no match falls back to landowner", []string{"other"}, domainauth.RoleLandowner},
		{"empty groups fall back", nil, domainauth.RoleLandowner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapper.Map(tt.groups))
		})
	}
}

func TestStaticRoleMapper_DisabledRuleAndFallback(t *testing.T) {
	mapper := StaticRoleMapper{
		AdminGroup: "", // disabled
		Fallback:   domainauth.RoleSeller,
	}
	assert.Equal(t, domainauth.RoleSeller, mapper.Map([]string{"salina-admins"}))
}
