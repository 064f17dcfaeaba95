package authz

import (
	"strings"

	"github.com/crewdeskhq/crewdesk/models"
	"github.com/crewdeskhq/crewdesk/permission"
)

// AuthorizationContext is the resolved caller: identity, grant set, tenant
// scope and super-admin flag. It is constructed fresh per request, never
// mutated after construction, and discarded at request end. Nothing in it is
// cached across requests.
type AuthorizationContext struct {
	Identity  *models.User
	RoleNames []string
	Grants    permission.Set
	// Workspace is the resolved tenant, or nil for "no tenant scope"
	// (super-admins and users without any membership).
	Workspace  *models.Workspace
	SuperAdmin bool
}

// hasAllAccessRole reports whether the caller holds the protected all-access
// role, either as the legacy role label or an explicit assignment.
func (ac *AuthorizationContext) hasAllAccessRole() bool {
	if ac.Identity != nil && strings.EqualFold(ac.Identity.Role, models.ProtectedRoleName) {
		return true
	}
	for _, name := range ac.RoleNames {
		if strings.EqualFold(name, models.ProtectedRoleName) {
			return true
		}
	}
	return false
}

// RequireRole allows iff the identity's legacy role label is in the allowed
// set. Pure function of the context.
func (ac *AuthorizationContext) RequireRole(allowed ...string) Decision {
	if ac.Identity != nil {
		for _, name := range allowed {
			if strings.EqualFold(ac.Identity.Role, name) {
				return Allow()
			}
		}
	}
	return Deny(ReasonRole)
}

// RequirePermission allows iff every given grant is held (ALL-of semantics).
// Super-admins and holders of the protected all-access role pass for any
// input, including permissions that do not exist.
func (ac *AuthorizationContext) RequirePermission(grants ...permission.Grant) Decision {
	if ac.SuperAdmin || ac.hasAllAccessRole() {
		return Allow()
	}
	if ac.Grants.HasAll(grants...) {
		return Allow()
	}
	return Deny(ReasonPermission)
}

// RequireAnyPermission allows iff at least one given grant is held (ANY-of
// semantics). Equivalent to RequirePermission for a singleton list.
func (ac *AuthorizationContext) RequireAnyPermission(grants ...permission.Grant) Decision {
	if ac.SuperAdmin || ac.hasAllAccessRole() {
		return Allow()
	}
	if ac.Grants.HasAny(grants...) {
		return Allow()
	}
	return Deny(ReasonPermission)
}
