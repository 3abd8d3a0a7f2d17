package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

func userWithRole(name domain.RoleName) *domain.User {
	perms := []string{}
	for _, p := range RolePermissions[name] {
		perms = append(perms, string(p))
	}
	return &domain.User{ID: "u-" + string(name), Role: &domain.Role{Name: name, Permissions: perms}}
}

func TestEvaluateRoles(t *testing.T) {
	a := NewAuthorizer(nil)
	admins := AnyRole(domain.RoleAdmin, domain.RoleSuperAdmin)

	assert.NoError(t, a.Evaluate(PrincipalOf(userWithRole(domain.RoleAdmin)), admins))
	assert.ErrorIs(t, a.Evaluate(PrincipalOf(userWithRole(domain.RoleWarden)), admins), domain.ErrForbidden)
	assert.ErrorIs(t, a.Evaluate(PrincipalOf(userWithRole(domain.RoleModerator)), admins), domain.ErrForbidden)
}

func TestSuperAdminFlagOverridesRole(t *testing.T) {
	a := NewAuthorizer(nil)
	u := userWithRole(domain.RoleWarden)
	u.IsSuperAdmin = true

	p := PrincipalOf(u)
	assert.True(t, p.IsSuperAdmin())
	assert.NoError(t, a.Evaluate(p, AnyRole(domain.RoleAdmin)))
	assert.NoError(t, a.Evaluate(p, Requirement{Permission: PermWelfareManage, OwnerID: "someone-else"}))
}

func TestWildcardPermissionGrantsSuperAdmin(t *testing.T) {
	a := NewAuthorizer(nil)
	p := PrincipalOf(userWithRole(domain.RoleSuperAdmin))
	assert.True(t, p.IsSuperAdmin())
	assert.NoError(t, a.Evaluate(p, AnyRole(domain.RoleModerator)))
}

func TestEvaluatePermissionAndOwner(t *testing.T) {
	a := NewAuthorizer(nil)
	mod := PrincipalOf(userWithRole(domain.RoleModerator))

	assert.True(t, a.Allows(mod, Requirement{Permission: PermReportsReview}))
	assert.False(t, a.Allows(mod, Requirement{Permission: PermWelfareManage}))
	assert.True(t, a.Allows(mod, Requirement{OwnerID: mod.UserID}))
	assert.False(t, a.Allows(mod, Requirement{OwnerID: "other"}))
	assert.True(t, a.Allows(mod, Requirement{}))
}

func TestUnhydratedUserHasNoRole(t *testing.T) {
	a := NewAuthorizer(nil)
	p := PrincipalOf(&domain.User{ID: "u-1"})
	assert.False(t, p.IsSuperAdmin())
	assert.False(t, a.Allows(p, AnyRole(domain.RoleWarden)))
}
