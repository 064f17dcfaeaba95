package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crewdeskhq/crewdesk/generates"
	"github.com/crewdeskhq/crewdesk/models"
	"github.com/crewdeskhq/crewdesk/permission"
	"github.com/crewdeskhq/crewdesk/store"
)

// UserReader loads identity records.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RoleReader loads role assignments and their permissions.
type RoleReader interface {
	ListRolesForUser(ctx context.Context, userID string) ([]models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	ListPermissionsForRoles(ctx context.Context, roleIDs []string) ([]models.Permission, error)
}

// WorkspaceReader loads workspaces and memberships.
type WorkspaceReader interface {
	GetActive(ctx context.Context, id string) (*models.Workspace, error)
	LatestActiveMembership(ctx context.Context, userID string) (*models.WorkspaceMember, error)
	HasActiveMembership(ctx context.Context, workspaceID, userID string) (bool, error)
}

// Engine is the authorization core. It is request-scoped and stateless across
// requests: every Authorize call re-reads roles, permissions, membership and
// subscription state so changes take effect on the very next request.
type Engine struct {
	tokens     *generates.JWTAccessGenerate
	users      UserReader
	roles      RoleReader
	workspaces WorkspaceReader
	gate       SubscriptionGate
	log        logrus.FieldLogger
}

// NewEngine wires the engine. log may be nil, in which case the standard
// logger is used.
func NewEngine(tokens *generates.JWTAccessGenerate, users UserReader, roles RoleReader, workspaces WorkspaceReader, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{tokens: tokens, users: users, roles: roles, workspaces: workspaces, log: log}
}

// Authorize resolves a bearer credential into an AuthorizationContext:
// credential verification, identity load, role and permission resolution,
// tenant resolution. Returns a typed *Error for every authentication failure
// and a plain error for storage failures.
func (e *Engine) Authorize(ctx context.Context, bearer string) (*AuthorizationContext, error) {
	claims, err := e.tokens.Verify(ctx, bearer)
	if err != nil {
		if errors.Is(err, generates.ErrCredentialExpired) {
			return nil, Unauthenticated(ReasonCredentialExpired, "credential expired")
		}
		return nil, Unauthenticated(ReasonInvalidCredential, "invalid credential")
	}

	identity, err := e.ResolveIdentity(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	// Tenant hint embedded at issuance time; only fills the gap, never
	// overrides an explicit tenant on the identity record.
	if claims.WorkspaceID != "" && identity.WorkspaceID == nil {
		wsID := claims.WorkspaceID
		identity.WorkspaceID = &wsID
	}

	roles, err := e.ResolveRoles(ctx, identity)
	if err != nil {
		return nil, err
	}
	grants, err := e.ResolvePermissions(ctx, roles)
	if err != nil {
		return nil, err
	}
	ws, err := e.ResolveTenant(ctx, identity)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}
	return &AuthorizationContext{
		Identity:   identity,
		RoleNames:  names,
		Grants:     grants,
		Workspace:  ws,
		SuperAdmin: identity.IsSuperAdmin,
	}, nil
}

// ResolveIdentity loads the user record for a verified subject. Both failure
// modes are terminal and map to "unauthenticated".
func (e *Engine) ResolveIdentity(ctx context.Context, subject string) (*models.User, error) {
	user, err := e.users.GetByID(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if user == nil {
		return nil, Unauthenticated(ReasonIdentityNotFound, "identity not found")
	}
	if !user.Active {
		return nil, Unauthenticated(ReasonIdentityDeactivated, "identity deactivated")
	}
	return user, nil
}

// ResolveRoles returns the identity's roles: explicit assignment rows win; a
// user without any falls back to the legacy role label resolved by name. An
// unresolvable label is a data-integrity warning, not a request failure; the
// permission set is simply empty.
func (e *Engine) ResolveRoles(ctx context.Context, identity *models.User) ([]models.Role, error) {
	explicit, err := e.roles.ListRolesForUser(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	if len(explicit) > 0 {
		return explicit, nil
	}
	if identity.Role == "" {
		e.log.WithField("user_id", identity.ID).Debug("no roles configured")
		return nil, nil
	}
	legacy, err := e.roles.GetByName(ctx, identity.Role)
	if err != nil {
		return nil, fmt.Errorf("resolve legacy role: %w", err)
	}
	if legacy == nil {
		e.log.WithFields(logrus.Fields{
			"user_id": identity.ID,
			"role":    identity.Role,
		}).Warn("legacy role label does not resolve to a known role")
		return nil, nil
	}
	return []models.Role{*legacy}, nil
}

// ResolvePermissions expands roles into the deduplicated, (module, action)
// ordered grant set. Pure function of its input; never cached across
// requests. Unrecognized module/action strings in storage are skipped with a
// data-integrity warning.
func (e *Engine) ResolvePermissions(ctx context.Context, roles []models.Role) (permission.Set, error) {
	if len(roles) == 0 {
		return permission.NewSet(), nil
	}
	ids := make([]string, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	perms, err := e.roles.ListPermissionsForRoles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	grants := make([]permission.Grant, 0, len(perms))
	for _, p := range perms {
		g, err := permission.NewGrant(p.Module, p.Action)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"permission_id": p.ID,
				"module":        p.Module,
				"action":        p.Action,
			}).Warn("skipping unrecognized permission")
			continue
		}
		grants = append(grants, g)
	}
	return permission.NewSet(grants...), nil
}

// ResolveTenant determines the caller's workspace context. Super-admins get
// no tenant scope. An explicit tenant id on the identity wins; otherwise the
// most-recently-joined active membership resolves the tenant and is cached
// onto the identity for the remainder of the request. "No tenant" is not an
// error.
func (e *Engine) ResolveTenant(ctx context.Context, identity *models.User) (*models.Workspace, error) {
	if identity.IsSuperAdmin {
		return nil, nil
	}
	if identity.WorkspaceID != nil && *identity.WorkspaceID != "" {
		ws, err := e.lookupWorkspace(ctx, *identity.WorkspaceID, identity.ID)
		if err != nil || ws != nil {
			return ws, err
		}
		// Explicit tenant unusable; fall through to membership resolution.
	}
	m, err := e.workspaces.LatestActiveMembership(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve membership: %w", err)
	}
	if m == nil {
		return nil, nil
	}
	ws, err := e.lookupWorkspace(ctx, m.WorkspaceID, identity.ID)
	if err != nil || ws == nil {
		return nil, err
	}
	wsID := ws.ID
	identity.WorkspaceID = &wsID
	return ws, nil
}

func (e *Engine) lookupWorkspace(ctx context.Context, id, userID string) (*models.Workspace, error) {
	ws, err := e.workspaces.GetActive(ctx, id)
	if errors.Is(err, store.ErrProjectGone) {
		e.log.WithFields(logrus.Fields{
			"workspace_id": id,
			"user_id":      userID,
		}).Warn("workspace project is gone, treating tenant as unresolved")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	return ws, nil
}

// RequireWorkspaceAccess is the single relationship check consolidating the
// membership pattern previously copy-pasted across call sites: super-admin
// bypass, ownership, or any active membership row. When the result would be
// allowed and the request is a mutation, the subscription gate runs and may
// convert the result to forbidden(trial_expired). Read-only callers pass
// mutating=false to exempt themselves from the gate.
//
// The returned error is either a storage failure or a KindResourceGone error;
// every authorization outcome is expressed in the Decision.
func (e *Engine) RequireWorkspaceAccess(ctx context.Context, ac *AuthorizationContext, workspaceID string, mutating bool) (Decision, error) {
	if ac.SuperAdmin {
		return Allow(), nil
	}
	ws, err := e.workspaces.GetActive(ctx, workspaceID)
	if errors.Is(err, store.ErrProjectGone) {
		return Decision{}, ResourceGone("workspace project no longer exists")
	}
	if err != nil {
		return Decision{}, fmt.Errorf("load workspace: %w", err)
	}
	if ws == nil {
		return NotFound(ReasonWorkspace), nil
	}

	allowed := ws.OwnerID == ac.Identity.ID
	if !allowed {
		member, err := e.workspaces.HasActiveMembership(ctx, workspaceID, ac.Identity.ID)
		if err != nil {
			return Decision{}, fmt.Errorf("check membership: %w", err)
		}
		allowed = member
	}
	if !allowed {
		return Deny(ReasonWorkspace), nil
	}
	if mutating {
		if d := e.gate.Check(ws, time.Now()); !d.Allowed() {
			return d, nil
		}
	}
	return Allow(), nil
}

// Gate exposes the subscription gate for callers that evaluate it outside
// RequireWorkspaceAccess.
func (e *Engine) Gate() SubscriptionGate { return e.gate }
