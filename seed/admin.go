package seed

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/crewdeskhq/crewdesk/models"
)

// EnsureAdminUser creates the initial administrator identity if no user with
// the given username exists. The password is bcrypt-hashed; the legacy role
// label is set to the protected admin role so the account works on schemas
// without explicit role assignments.
func EnsureAdminUser(ctx context.Context, db *gorm.DB, username, password string) error {
	var count int64
	if err := db.WithContext(ctx).Table("users").Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, username, email, display_name, password_hash, active, role) VALUES (?,?,?,?,?,TRUE,?)`,
		models.NewID(), username, "", "Administrator", string(hash), models.ProtectedRoleName,
	).Error
}
