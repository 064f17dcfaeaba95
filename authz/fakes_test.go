package authz

import (
	"context"
	"sort"

	"github.com/crewdeskhq/crewdesk/models"
	"github.com/crewdeskhq/crewdesk/store"
)

// In-memory store fakes backing engine tests.

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type fakeRoles struct {
	byUser  map[string][]models.Role
	byName  map[string]models.Role
	byRole  map[string][]models.Permission
	nameErr error
}

func (f *fakeRoles) ListRolesForUser(_ context.Context, userID string) ([]models.Role, error) {
	return f.byUser[userID], nil
}

func (f *fakeRoles) GetByName(_ context.Context, name string) (*models.Role, error) {
	if f.nameErr != nil {
		return nil, f.nameErr
	}
	r, ok := f.byName[name]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeRoles) ListPermissionsForRoles(_ context.Context, roleIDs []string) ([]models.Permission, error) {
	seen := make(map[string]models.Permission)
	for _, id := range roleIDs {
		for _, p := range f.byRole[id] {
			seen[p.Module+":"+p.Action] = p
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.Permission, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out, nil
}

type fakeWorkspaces struct {
	workspaces  map[string]*models.Workspace
	gone        map[string]bool
	memberships map[string][]models.WorkspaceMember // keyed by user id, newest first
}

func (f *fakeWorkspaces) GetActive(_ context.Context, id string) (*models.Workspace, error) {
	if f.gone[id] {
		return nil, store.ErrProjectGone
	}
	ws, ok := f.workspaces[id]
	if !ok {
		return nil, nil
	}
	cp := *ws
	return &cp, nil
}

func (f *fakeWorkspaces) LatestActiveMembership(_ context.Context, userID string) (*models.WorkspaceMember, error) {
	ms := f.memberships[userID]
	if len(ms) == 0 {
		return nil, nil
	}
	m := ms[0]
	return &m, nil
}

func (f *fakeWorkspaces) HasActiveMembership(_ context.Context, workspaceID, userID string) (bool, error) {
	for _, m := range f.memberships[userID] {
		if m.WorkspaceID == workspaceID && m.Status == models.MemberActive {
			return true, nil
		}
	}
	return false, nil
}
