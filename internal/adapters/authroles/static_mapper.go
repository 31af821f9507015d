package authroles

import (
	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups by simple string membership rules.
// Admin membership wins; anyone else gets the minimal user role, which the
// auth-state watcher later reconciles against the stored profile.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	return domainauth.RoleUser
}
