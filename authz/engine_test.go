package authz

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crewdeskhq/crewdesk/generates"
	"github.com/crewdeskhq/crewdesk/models"
)

func strptr(s string) *string { return &s }

func newTestEngine(users *fakeUsers, roles *fakeRoles, workspaces *fakeWorkspaces) *Engine {
	tokens := generates.NewJWTAccessGenerate(generates.TokenConfig{
		Secret: []byte("engine-test-secret-000000000000"),
		Expiry: time.Hour,
	})
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewEngine(tokens, users, roles, workspaces, log)
}

func baseFixtures() (*fakeUsers, *fakeRoles, *fakeWorkspaces) {
	users := &fakeUsers{users: map[string]*models.User{
		"u-viewer": {ID: "u-viewer", Username: "viewer", Active: true, Role: "viewer"},
		"u-member": {ID: "u-member", Username: "member", Active: true},
		"u-admin":  {ID: "u-admin", Username: "admin", Active: true, Role: "admin"},
		"u-super":  {ID: "u-super", Username: "root", Active: true, IsSuperAdmin: true},
		"u-gone":   {ID: "u-gone", Username: "gone", Active: false},
	}}
	roles := &fakeRoles{
		byUser: map[string][]models.Role{
			"u-member": {{ID: "r-member", Name: "member"}},
		},
		byName: map[string]models.Role{
			"viewer": {ID: "r-viewer", Name: "viewer"},
			"admin":  {ID: "r-admin", Name: "admin", Protected: true},
		},
		byRole: map[string][]models.Permission{
			"r-viewer": {
				{ID: "p1", Module: "scrum", Action: "view"},
				{ID: "p2", Module: "projects", Action: "view"},
			},
			"r-member": {
				{ID: "p3", Module: "scrum", Action: "view"},
				{ID: "p4", Module: "scrum", Action: "edit"},
			},
		},
	}
	future := time.Now().Add(30 * 24 * time.Hour)
	workspaces := &fakeWorkspaces{
		workspaces: map[string]*models.Workspace{
			"ws-1": {
				ID: "ws-1", Name: "One", OwnerID: "u-member", ProjectID: "proj-1",
				Plan: models.PlanTrial, TrialEndsAt: &future, Active: true,
			},
		},
		gone: map[string]bool{},
		memberships: map[string][]models.WorkspaceMember{
			"u-member": {{ID: "m1", WorkspaceID: "ws-1", UserID: "u-member", Status: models.MemberActive, JoinedAt: time.Now()}},
		},
	}
	return users, roles, workspaces
}

func TestAuthorizeRoundTrip(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)
	ctx := context.Background()

	tok, err := e.tokens.Token(ctx, "u-member", "ws-1")
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	ac, err := e.Authorize(ctx, tok)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if ac.Identity.ID != "u-member" {
		t.Errorf("identity = %s, want u-member", ac.Identity.ID)
	}
	if ac.Workspace == nil || ac.Workspace.ID != "ws-1" {
		t.Errorf("workspace = %+v, want ws-1", ac.Workspace)
	}
	if got := ac.Grants.Strings(); len(got) != 2 || got[0] != "scrum:edit" || got[1] != "scrum:view" {
		t.Errorf("grants = %v", got)
	}
	if ac.SuperAdmin {
		t.Error("ordinary member flagged super-admin")
	}
}

func TestAuthorizeRejectsGarbageToken(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)

	_, err := e.Authorize(context.Background(), "definitely-not-a-token")
	if KindOf(err) != KindUnauthenticated || ReasonOf(err) != ReasonInvalidCredential {
		t.Errorf("err = %v (kind %v, reason %v)", err, KindOf(err), ReasonOf(err))
	}
}

func TestAuthorizeUnknownSubject(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)
	ctx := context.Background()

	tok, _ := e.tokens.Token(ctx, "u-nobody", "")
	_, err := e.Authorize(ctx, tok)
	if KindOf(err) != KindUnauthenticated || ReasonOf(err) != ReasonIdentityNotFound {
		t.Errorf("err = %v (reason %v)", err, ReasonOf(err))
	}
}

func TestAuthorizeDeactivatedIdentity(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)
	ctx := context.Background()

	tok, _ := e.tokens.Token(ctx, "u-gone", "")
	_, err := e.Authorize(ctx, tok)
	if ReasonOf(err) != ReasonIdentityDeactivated {
		t.Errorf("err = %v (reason %v), want identity_deactivated", err, ReasonOf(err))
	}
}

func TestResolveRolesExplicitWins(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)

	// u-member has an explicit assignment and no legacy label.
	u, _ := users.GetByID(context.Background(), "u-member")
	got, err := e.ResolveRoles(context.Background(), u)
	if err != nil {
		t.Fatalf("ResolveRoles: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r-member" {
		t.Errorf("roles = %+v, want the explicit r-member row", got)
	}
}

func TestResolveRolesLegacyFallback(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)

	u, _ := users.GetByID(context.Background(), "u-viewer")
	got, err := e.ResolveRoles(context.Background(), u)
	if err != nil {
		t.Fatalf("ResolveRoles: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r-viewer" {
		t.Errorf("roles = %+v, want exactly the resolved viewer role", got)
	}
}

func TestResolveRolesUnresolvableLabel(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	users.users["u-stale"] = &models.User{ID: "u-stale", Active: true, Role: "deleted-role"}
	e := newTestEngine(users, roles, workspaces)

	u, _ := users.GetByID(context.Background(), "u-stale")
	got, err := e.ResolveRoles(context.Background(), u)
	if err != nil {
		t.Fatalf("an unresolvable label must not fail the request: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("roles = %+v, want empty", got)
	}
	grants, err := e.ResolvePermissions(context.Background(), got)
	if err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	if len(grants) != 0 {
		t.Errorf("grants = %v, want empty set", grants)
	}
}

func TestResolvePermissionsSkipsUnknownRows(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	roles.byRole["r-viewer"] = append(roles.byRole["r-viewer"],
		models.Permission{ID: "px", Module: "billing", Action: "view"},
		models.Permission{ID: "py", Module: "scrum", Action: "explode"},
	)
	e := newTestEngine(users, roles, workspaces)

	grants, err := e.ResolvePermissions(context.Background(), []models.Role{{ID: "r-viewer", Name: "viewer"}})
	if err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	want := []string{"projects:view", "scrum:view"}
	got := grants.Strings()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("grants = %v, want %v", got, want)
	}
}

func TestResolveTenantSuperAdmin(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)

	u, _ := users.GetByID(context.Background(), "u-super")
	ws, err := e.ResolveTenant(context.Background(), u)
	if err != nil {
		t.Fatalf("ResolveTenant: %v", err)
	}
	if ws != nil {
		t.Errorf("super-admin tenant = %+v, want nil", ws)
	}
}

func TestResolveTenantExplicitID(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	users.users["u-pinned"] = &models.User{ID: "u-pinned", Active: true, WorkspaceID: strptr("ws-1")}
	e := newTestEngine(users, roles, workspaces)

	u, _ := users.GetByID(context.Background(), "u-pinned")
	ws, err := e.ResolveTenant(context.Background(), u)
	if err != nil {
		t.Fatalf("ResolveTenant: %v", err)
	}
	if ws == nil || ws.ID != "ws-1" {
		t.Errorf("tenant = %+v, want ws-1", ws)
	}
}

func TestResolveTenantMembershipFallback(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)

	u, _ := users.GetByID(context.Background(), "u-member")
	if u.WorkspaceID != nil {
		t.Fatal("fixture: u-member must start without an explicit tenant")
	}
	ws, err := e.ResolveTenant(context.Background(), u)
	if err != nil {
		t.Fatalf("ResolveTenant: %v", err)
	}
	if ws == nil || ws.ID != "ws-1" {
		t.Errorf("tenant = %+v, want ws-1 via membership", ws)
	}
	if u.WorkspaceID == nil || *u.WorkspaceID != "ws-1" {
		t.Error("resolved tenant must be remembered on the identity for the request")
	}
}

func TestResolveTenantProjectGone(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	users.users["u-pinned"] = &models.User{ID: "u-pinned", Active: true, WorkspaceID: strptr("ws-dead")}
	workspaces.gone["ws-dead"] = true
	e := newTestEngine(users, roles, workspaces)

	u, _ := users.GetByID(context.Background(), "u-pinned")
	ws, err := e.ResolveTenant(context.Background(), u)
	if err != nil {
		t.Fatalf("a dead tenant during resolution must degrade, not fail: %v", err)
	}
	if ws != nil {
		t.Errorf("tenant = %+v, want nil", ws)
	}
}

func TestResolveTenantNoMembership(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)

	u, _ := users.GetByID(context.Background(), "u-viewer")
	ws, err := e.ResolveTenant(context.Background(), u)
	if err != nil {
		t.Fatalf("ResolveTenant: %v", err)
	}
	if ws != nil {
		t.Errorf("tenant = %+v, want nil for a user without memberships", ws)
	}
}

func TestRequireWorkspaceAccess(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	e := newTestEngine(users, roles, workspaces)
	ctx := context.Background()

	member, _ := users.GetByID(ctx, "u-member")
	viewer, _ := users.GetByID(ctx, "u-viewer")
	super, _ := users.GetByID(ctx, "u-super")

	t.Run("OwnerAllowed", func(t *testing.T) {
		d, err := e.RequireWorkspaceAccess(ctx, &AuthorizationContext{Identity: member}, "ws-1", false)
		if err != nil || !d.Allowed() {
			t.Errorf("decision = %+v, err = %v", d, err)
		}
	})

	t.Run("StrangerForbidden", func(t *testing.T) {
		d, err := e.RequireWorkspaceAccess(ctx, &AuthorizationContext{Identity: viewer}, "ws-1", false)
		if err != nil {
			t.Fatalf("err = %v", err)
		}
		if d.Status != StatusForbidden || d.Reason != ReasonWorkspace {
			t.Errorf("decision = %+v, want forbidden(workspace)", d)
		}
	})

	t.Run("SuperAdminBypass", func(t *testing.T) {
		d, err := e.RequireWorkspaceAccess(ctx, &AuthorizationContext{Identity: super, SuperAdmin: true}, "ws-1", true)
		if err != nil || !d.Allowed() {
			t.Errorf("decision = %+v, err = %v", d, err)
		}
	})

	t.Run("UnknownWorkspaceNotFound", func(t *testing.T) {
		d, err := e.RequireWorkspaceAccess(ctx, &AuthorizationContext{Identity: member}, "ws-404", false)
		if err != nil {
			t.Fatalf("err = %v", err)
		}
		if d.Status != StatusNotFound {
			t.Errorf("decision = %+v, want not-found", d)
		}
	})

	t.Run("ProjectGone", func(t *testing.T) {
		workspaces.gone["ws-dead"] = true
		_, err := e.RequireWorkspaceAccess(ctx, &AuthorizationContext{Identity: member}, "ws-dead", false)
		if KindOf(err) != KindResourceGone {
			t.Errorf("err = %v (kind %v), want resource_gone", err, KindOf(err))
		}
	})
}

func TestRequireWorkspaceAccessTrialGate(t *testing.T) {
	users, roles, workspaces := baseFixtures()
	past := time.Now().Add(-24 * time.Hour)
	workspaces.workspaces["ws-1"].TrialEndsAt = &past
	e := newTestEngine(users, roles, workspaces)
	ctx := context.Background()

	owner, _ := users.GetByID(ctx, "u-member")
	ac := &AuthorizationContext{Identity: owner}

	// Reads stay open after the trial lapses.
	d, err := e.RequireWorkspaceAccess(ctx, ac, "ws-1", false)
	if err != nil || !d.Allowed() {
		t.Errorf("read decision = %+v, err = %v", d, err)
	}

	// Mutations are gated, and the denial carries the trial end date.
	d, err = e.RequireWorkspaceAccess(ctx, ac, "ws-1", true)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if d.Status != StatusForbidden || d.Reason != ReasonTrialExpired {
		t.Fatalf("decision = %+v, want forbidden(trial_expired)", d)
	}
	if d.TrialEndsAt == nil || !d.TrialEndsAt.Equal(past) {
		t.Errorf("TrialEndsAt = %v, want %v", d.TrialEndsAt, past)
	}

	// A subscription reference lifts the gate even with a lapsed trial window.
	workspaces.workspaces["ws-1"].SubscriptionID = strptr("sub_123")
	d, err = e.RequireWorkspaceAccess(ctx, ac, "ws-1", true)
	if err != nil || !d.Allowed() {
		t.Errorf("subscribed decision = %+v, err = %v", d, err)
	}
}
