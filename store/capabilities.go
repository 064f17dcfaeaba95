package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/crewdeskhq/crewdesk/models"
)

// Capabilities records which optional schema features are present. It is
// resolved once at startup by DetectCapabilities; per-request queries branch on
// these flags instead of catching column-not-found errors.
type Capabilities struct {
	UserWorkspaceID   bool // users.workspace_id
	UserSuperAdmin    bool // users.is_superadmin
	UserEmailVerified bool // users.email_verified
}

// Full returns capabilities with every optional feature present. Useful for
// tests against a fully migrated schema.
func Full() Capabilities {
	return Capabilities{UserWorkspaceID: true, UserSuperAdmin: true, UserEmailVerified: true}
}

// DetectCapabilities probes the connected database for the optional user
// columns added by later migrations.
func DetectCapabilities(ctx context.Context, db *gorm.DB) Capabilities {
	m := db.WithContext(ctx).Migrator()
	var u models.User
	return Capabilities{
		UserWorkspaceID:   m.HasColumn(&u, "workspace_id"),
		UserSuperAdmin:    m.HasColumn(&u, "is_superadmin"),
		UserEmailVerified: m.HasColumn(&u, "email_verified"),
	}
}
