package security

import (
	"log/slog"
	"slices"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermAll           Permission = "*"
	PermPostsCreate   Permission = "posts.create"
	PermReportsReview Permission = "reports.review"
	PermUsersApprove  Permission = "users.approve"
	PermWelfareManage Permission = "welfare.manage"
	PermInvitesCreate Permission = "invites.create"
)

// RolePermissions maps seeded roles to their permissions
var RolePermissions = map[domain.RoleName][]Permission{
	domain.RoleSuperAdmin: {PermAll},
	domain.RoleAdmin:      {PermPostsCreate, PermUsersApprove, PermWelfareManage, PermInvitesCreate},
	domain.RoleModerator:  {PermPostsCreate, PermReportsReview},
	domain.RoleWarden:     {PermPostsCreate},
}

// Principal is the authenticated caller as seen by the policy.
type Principal struct {
	UserID      string
	Role        domain.RoleName
	Permissions []Permission
	superAdmin  bool
}

// PrincipalOf builds a principal from a hydrated user. The super-admin flag
// and a wildcard permission both grant the super-admin capability.
func PrincipalOf(u *domain.User) Principal {
	p := Principal{UserID: u.ID, Role: u.RoleName(), superAdmin: u.IsSuperAdmin}
	if u.Role != nil {
		for _, perm := range u.Role.Permissions {
			p.Permissions = append(p.Permissions, Permission(perm))
			if Permission(perm) == PermAll {
				p.superAdmin = true
			}
		}
	}
	return p
}

// IsSuperAdmin reports whether the principal bypasses every requirement.
func (p Principal) IsSuperAdmin() bool { return p.superAdmin }

// Requirement describes what an action needs. Every non-empty field must be
// satisfied.
type Requirement struct {
	Roles      []domain.RoleName
	Permission Permission
	OwnerID    string
}

// AnyRole is a requirement satisfied by any of roles.
func AnyRole(roles ...domain.RoleName) Requirement { return Requirement{Roles: roles} }

// Authorizer is the single decision point for access control
type Authorizer struct {
	logger *slog.Logger
}

// NewAuthorizer creates a new authorizer
func NewAuthorizer(logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{logger: logger}
}

// Evaluate returns nil if p satisfies req, or a forbidden error.
func (a *Authorizer) Evaluate(p Principal, req Requirement) error {
	if p.superAdmin {
		return nil
	}
	if len(req.Roles) > 0 && !slices.Contains(req.Roles, p.Role) {
		a.deny(p, "insufficient role")
		return domain.Forbidden("insufficient role")
	}
	if req.Permission != "" && !slices.Contains(p.Permissions, req.Permission) {
		a.deny(p, "missing permission "+string(req.Permission))
		return domain.Forbidden("access denied")
	}
	if req.OwnerID != "" && req.OwnerID != p.UserID {
		a.deny(p, "not owner")
		return domain.Forbidden("access denied")
	}
	return nil
}

// Allows is Evaluate as a boolean.
func (a *Authorizer) Allows(p Principal, req Requirement) bool {
	return a.Evaluate(p, req) == nil
}

func (a *Authorizer) deny(p Principal, reason string) {
	a.logger.Warn("permission denied",
		slog.String("user_id", p.UserID),
		slog.String("role", string(p.Role)),
		slog.String("reason", reason),
	)
}
