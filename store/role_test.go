package store

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func setupRoleStoreTest(t *testing.T) *RoleStore {
	t.Helper()
	db, err := getTestGormDB()
	if err != nil {
		t.Skip("No database connection available")
	}
	return NewRoleStore(db)
}

func TestRoleStore_GetByNameCaseInsensitive(t *testing.T) {
	s := setupRoleStoreTest(t)
	ctx := context.Background()

	roleID := uniqueTestID("role")
	name := uniqueTestID("Reviewer")
	if err := s.DB.Exec(`INSERT INTO roles (id, name, display_name) VALUES (?, ?, 'Reviewer')`, roleID, name).Error; err != nil {
		t.Fatalf("insert role: %v", err)
	}
	defer s.DB.Exec(`DELETE FROM roles WHERE id = ?`, roleID)

	for _, q := range []string{name, strings.ToUpper(name), "  " + name + "  "} {
		r, err := s.GetByName(ctx, q)
		if err != nil {
			t.Fatalf("GetByName(%q): %v", q, err)
		}
		if r == nil || r.ID != roleID {
			t.Errorf("GetByName(%q) = %+v, want role %s", q, r, roleID)
		}
	}

	r, err := s.GetByName(ctx, uniqueTestID("missing"))
	if err != nil || r != nil {
		t.Errorf("missing role = (%+v, %v), want (nil, nil)", r, err)
	}
}

func TestRoleStore_ListPermissionsForRoles(t *testing.T) {
	s := setupRoleStoreTest(t)
	ctx := context.Background()

	roleA := uniqueTestID("role-a")
	roleB := uniqueTestID("role-b")
	s.DB.Exec(`INSERT INTO roles (id, name) VALUES (?, ?)`, roleA, uniqueTestID("name-a"))
	s.DB.Exec(`INSERT INTO roles (id, name) VALUES (?, ?)`, roleB, uniqueTestID("name-b"))
	defer s.DB.Exec(`DELETE FROM roles WHERE id IN (?, ?)`, roleA, roleB)

	// Shared permission assigned to both roles must come back once.
	pmod := uniqueTestID("mod")
	shared := uniqueTestID("perm-shared")
	only := uniqueTestID("perm-only")
	s.DB.Exec(`INSERT INTO permissions (id, module, action) VALUES (?, ?, 'view')`, shared, pmod)
	s.DB.Exec(`INSERT INTO permissions (id, module, action) VALUES (?, ?, 'edit')`, only, pmod)
	defer s.DB.Exec(`DELETE FROM permissions WHERE id IN (?, ?)`, shared, only)

	for i, pair := range [][2]string{{roleA, shared}, {roleB, shared}, {roleB, only}} {
		s.DB.Exec(`INSERT INTO role_permissions (id, role_id, permission_id) VALUES (?, ?, ?)`,
			uniqueTestID("rp")+string(rune('a'+i)), pair[0], pair[1])
	}
	defer s.DB.Exec(`DELETE FROM role_permissions WHERE role_id IN (?, ?)`, roleA, roleB)

	perms, err := s.ListPermissionsForRoles(ctx, []string{roleA, roleB})
	if err != nil {
		t.Fatalf("ListPermissionsForRoles: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("got %d permissions, want 2 distinct", len(perms))
	}
	// Ordered by (module, action): edit before view.
	if perms[0].Action != "edit" || perms[1].Action != "view" {
		t.Errorf("order = [%s, %s], want [edit, view]", perms[0].Action, perms[1].Action)
	}

	none, err := s.ListPermissionsForRoles(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("empty role list = (%v, %v), want no rows", none, err)
	}
}

func TestRoleStore_ProtectedRoleIsImmutable(t *testing.T) {
	s := setupRoleStoreTest(t)
	ctx := context.Background()

	roleID := uniqueTestID("role-prot")
	name := uniqueTestID("guard")
	if err := s.DB.Exec(`INSERT INTO roles (id, name, protected) VALUES (?, ?, TRUE)`, roleID, name).Error; err != nil {
		t.Fatalf("insert role: %v", err)
	}
	defer s.DB.Exec(`DELETE FROM roles WHERE id = ?`, roleID)

	if err := s.DeleteRole(ctx, roleID); !errors.Is(err, ErrProtectedRole) {
		t.Errorf("DeleteRole err = %v, want ErrProtectedRole", err)
	}
	if err := s.SetRolePermissions(ctx, roleID, nil); !errors.Is(err, ErrProtectedRole) {
		t.Errorf("SetRolePermissions err = %v, want ErrProtectedRole", err)
	}
}

func TestRoleStore_AssignAndListForUser(t *testing.T) {
	s := setupRoleStoreTest(t)
	ctx := context.Background()

	roleID := uniqueTestID("role")
	userID := uniqueTestID("user")
	if err := s.DB.Exec(`INSERT INTO roles (id, name) VALUES (?, ?)`, roleID, uniqueTestID("squad")).Error; err != nil {
		t.Fatalf("insert role: %v", err)
	}
	defer s.DB.Exec(`DELETE FROM roles WHERE id = ?`, roleID)
	defer s.DB.Exec(`DELETE FROM user_roles WHERE user_id = ?`, userID)

	if err := s.AssignRoleToUser(ctx, userID, roleID); err != nil {
		t.Fatalf("AssignRoleToUser: %v", err)
	}
	roles, err := s.ListRolesForUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListRolesForUser: %v", err)
	}
	if len(roles) != 1 || roles[0].ID != roleID {
		t.Errorf("roles = %+v, want the assigned role", roles)
	}

	// Assigning a nonexistent role fails instead of writing a dangling row.
	if err := s.AssignRoleToUser(ctx, userID, uniqueTestID("missing")); err == nil {
		t.Error("assignment to a missing role succeeded")
	}
}
