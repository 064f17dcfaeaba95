package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/crewdeskhq/crewdesk/models"
)

// UserStore provides operations for identity records.
type UserStore struct {
	DB   *gorm.DB
	Caps Capabilities
}

func NewUserStore(db *gorm.DB, caps Capabilities) *UserStore { return &UserStore{DB: db, Caps: caps} }

// userColumns returns the SELECT list for the probed schema version. Optional
// columns absent from a partially migrated schema are simply not selected and
// the identity degrades to its reduced form.
func (s *UserStore) userColumns() string {
	cols := []string{"id", "username", "email", "display_name", "password_hash", "active", "role", "created_at", "updated_at"}
	if s.Caps.UserWorkspaceID {
		cols = append(cols, "workspace_id")
	}
	if s.Caps.UserSuperAdmin {
		cols = append(cols, "is_superadmin")
	}
	if s.Caps.UserEmailVerified {
		cols = append(cols, "email_verified")
	}
	return strings.Join(cols, ", ")
}

// GetByID loads an identity record. Returns (nil, nil) when no row exists.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Raw(`SELECT `+s.userColumns()+` FROM users WHERE id = ?`, id).Scan(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

// GetByUsername loads an identity record by username. Returns (nil, nil) when
// no row exists.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Raw(`SELECT `+s.userColumns()+` FROM users WHERE username = ?`, strings.TrimSpace(username)).Scan(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

// Create inserts a new identity. Only base columns are written unless the
// schema carries the optional ones.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = models.NewID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`INSERT INTO users(id, username, email, display_name, password_hash, active, role, created_at, updated_at) VALUES(?,?,?,?,?,?,?,?,?)`,
			u.ID, u.Username, u.Email, u.DisplayName, u.PasswordHash, u.Active, u.Role, u.CreatedAt, u.UpdatedAt).Error; err != nil {
			return err
		}
		if s.Caps.UserSuperAdmin && u.IsSuperAdmin {
			if err := tx.Exec(`UPDATE users SET is_superadmin = ? WHERE id = ?`, u.IsSuperAdmin, u.ID).Error; err != nil {
				return err
			}
		}
		if s.Caps.UserWorkspaceID && u.WorkspaceID != nil {
			if err := tx.Exec(`UPDATE users SET workspace_id = ? WHERE id = ?`, *u.WorkspaceID, u.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetActive toggles the active flag.
func (s *UserStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.DB.WithContext(ctx).Exec(`UPDATE users SET active = ?, updated_at = ? WHERE id = ?`, active, time.Now().UTC(), id).Error
}
