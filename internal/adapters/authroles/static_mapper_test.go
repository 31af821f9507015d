package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
)

func TestStaticRoleMapper_Map(t *testing.T) {
	m := StaticRoleMapper{AdminGroup: "communeo-admins", UserGroup: "communeo-users"}

	tests := []struct {
		name   string
		groups []string
		want   domainauth.Role
	}{
		{"admin group", []string{"communeo-admins"}, domainauth.RoleAdmin},
		{"admin wins over user", []string{"communeo-users", "communeo-admins"}, domainauth.RoleAdmin},
		{"user group", []string{"communeo-users"}, domainauth.RoleUser},
		{"no matching group falls back to user", []string{"other"}, domainauth.RoleUser},
		{"empty groups", nil, domainauth.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.groups))
		})
	}
}

func TestStaticRoleMapper_EmptyAdminGroupNeverPromotes(t *testing.T) {
	m := StaticRoleMapper{AdminGroup: "", UserGroup: "communeo-users"}
	assert.Equal(t, domainauth.RoleUser, m.Map([]string{""}))
}
