package authroles

import (
	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
	"github.com/salinaworks/salina-go/internal/ports"
)

var _ ports.RoleMapper = StaticRoleMapper{}

// StaticRoleMapper maps IdP groups to application roles by simple string
// membership. Precedence follows privilege: SUPERADMIN, ADMIN, SALTSOCIETY,
// SELLER, LANDOWNER. An empty group name disables that mapping; no match
// falls back to Fallback (landowner when unset, the least privileged role).
type StaticRoleMapper struct {
	SuperAdminGroup  string
	AdminGroup       string
	SaltSocietyGroup string
	SellerGroup      string
	LandownerGroup   string

	Fallback domainauth.Role
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	rules := []struct {
		group string
		role  domainauth.Role
	}{
		{m.SuperAdminGroup, domainauth.RoleSuperAdmin},
		{m.AdminGroup, domainauth.RoleAdmin},
		{m.SaltSocietyGroup, domainauth.RoleSaltSociety},
		{m.SellerGroup, domainauth.RoleSeller},
		{m.LandownerGroup, domainauth.RoleLandowner},
	}

	for _, rule := range rules {
		if rule.group == "" {
			continue
		}
		for _, g := range groups {
			if g == rule.group {
				return rule.role
			}
		}
	}

	if m.Fallback != "" {
		return m.Fallback
	}
	return domainauth.RoleLandowner
}
