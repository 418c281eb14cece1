// Package authroles maps identity provider groups to admin roles.
package authroles

import (
	"slices"

	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	"github.com/target/mmk-product-admin/internal/ports"
)

var _ ports.RoleMapper = StaticRoleMapper{}

// StaticRoleMapper grants a role on group membership. Admin wins over viewer.
// With no viewer groups configured every signed-in user may view.
type StaticRoleMapper struct {
	AdminGroups  []string
	ViewerGroups []string
}

func (m StaticRoleMapper) RoleFor(groups []string) domainauth.Role {
	if containsAny(groups, m.AdminGroups) {
		return domainauth.RoleAdmin
	}
	if len(m.ViewerGroups) == 0 || containsAny(groups, m.ViewerGroups) {
		return domainauth.RoleViewer
	}
	return domainauth.RoleGuest
}

func containsAny(groups, want []string) bool {
	for _, w := range want {
		if w != "" && slices.Contains(groups, w) {
			return true
		}
	}
	return false
}
