package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/crewdeskhq/crewdesk/models"
)

// ErrProtectedRole is returned when a write would touch the system-protected
// role. Its permission set can be read but never mutated or deleted.
var ErrProtectedRole = errors.New("role is system-protected")

type RoleStore struct{ DB *gorm.DB }

func NewRoleStore(db *gorm.DB) *RoleStore { return &RoleStore{DB: db} }

// GetByName resolves a role by name, case-insensitively. Returns (nil, nil)
// when no role matches.
func (s *RoleStore) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var r models.Role
	err := s.DB.WithContext(ctx).Raw(`SELECT id, name, display_name, protected, created_at FROM roles WHERE LOWER(name) = LOWER(?)`, strings.TrimSpace(name)).Scan(&r).Error
	if err != nil {
		return nil, err
	}
	if r.ID == "" {
		return nil, nil
	}
	return &r, nil
}

// GetByID returns a role by id, or (nil, nil) when absent.
func (s *RoleStore) GetByID(ctx context.Context, id string) (*models.Role, error) {
	var r models.Role
	err := s.DB.WithContext(ctx).Raw(`SELECT id, name, display_name, protected, created_at FROM roles WHERE id = ?`, id).Scan(&r).Error
	if err != nil {
		return nil, err
	}
	if r.ID == "" {
		return nil, nil
	}
	return &r, nil
}

// ListRolesForUser returns the roles explicitly assigned to a user.
func (s *RoleStore) ListRolesForUser(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role
	err := s.DB.WithContext(ctx).Table("roles r").Select("r.*").
		Joins("JOIN user_roles ur ON ur.role_id = r.id").
		Where("ur.user_id = ?", userID).Order("r.name ASC").Scan(&roles).Error
	return roles, err
}

// ListPermissionsForRoles returns the distinct permissions granted by any of
// the given roles, ordered by (module, action) for deterministic output.
func (s *RoleStore) ListPermissionsForRoles(ctx context.Context, roleIDs []string) ([]models.Permission, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var perms []models.Permission
	err := s.DB.WithContext(ctx).Table("permissions p").Select("DISTINCT p.id, p.module, p.action, p.description, p.created_at").
		Joins("JOIN role_permissions rp ON rp.permission_id = p.id").
		Where("rp.role_id IN ?", roleIDs).
		Order("p.module ASC, p.action ASC").Scan(&perms).Error
	return perms, err
}

// UpsertRole creates or updates a role by name. The protected role cannot be
// modified.
func (s *RoleStore) UpsertRole(ctx context.Context, role models.Role) error {
	if strings.TrimSpace(role.Name) == "" {
		return gorm.ErrInvalidData
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Role
		err := tx.Where("LOWER(name) = LOWER(?)", role.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role.ID = models.NewID()
			role.CreatedAt = time.Now().UTC()
			return tx.Create(&role).Error
		} else if err != nil {
			return err
		}
		if existing.Protected {
			return ErrProtectedRole
		}
		return tx.Model(&models.Role{}).Where("id = ?", existing.ID).Update("display_name", role.DisplayName).Error
	})
}

// DeleteRole removes a role and its assignments. The protected role cannot be
// deleted.
func (s *RoleStore) DeleteRole(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.Where("id = ?", id).First(&role).Error; err != nil {
			return err
		}
		if role.Protected {
			return ErrProtectedRole
		}
		if err := tx.Exec(`DELETE FROM role_permissions WHERE role_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM user_roles WHERE role_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Role{}, "id = ?", id).Error
	})
}

// SetRolePermissions replaces a role's permission set. The protected role's
// set is immutable.
func (s *RoleStore) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.Where("id = ?", roleID).First(&role).Error; err != nil {
			return err
		}
		if role.Protected {
			return ErrProtectedRole
		}
		if err := tx.Exec(`DELETE FROM role_permissions WHERE role_id = ?`, roleID).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, pid := range permissionIDs {
			rp := models.RolePermission{ID: models.NewID(), RoleID: roleID, PermissionID: pid, AssignedAt: now}
			if err := tx.Create(&rp).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AssignRoleToUser adds an explicit role assignment after validating the role
// exists.
func (s *RoleStore) AssignRoleToUser(ctx context.Context, userID, roleID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.Where("id = ?", roleID).First(&role).Error; err != nil {
			return err
		}
		ur := models.UserRole{ID: models.NewID(), UserID: userID, RoleID: roleID, AssignedAt: time.Now().UTC()}
		return tx.Create(&ur).Error
	})
}
