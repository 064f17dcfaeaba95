package models

import "time"

// User is the authenticated identity record. It is loaded once per request and
// treated as immutable for the request's lifetime.
//
// WorkspaceID, IsSuperAdmin and EmailVerified live in columns added by a later
// migration; on a partially migrated schema they are absent and the store
// returns their zero values (see store.Capabilities).
type User struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	Username      string    `gorm:"column:username;uniqueIndex" json:"username"`
	Email         string    `gorm:"column:email" json:"email"`
	DisplayName   string    `gorm:"column:display_name" json:"display_name"`
	PasswordHash  string    `gorm:"column:password_hash" json:"-"`
	Active        bool      `gorm:"column:active" json:"active"`
	Role          string    `gorm:"column:role" json:"role"` // legacy single-role label
	WorkspaceID   *string   `gorm:"column:workspace_id" json:"workspace_id,omitempty"`
	IsSuperAdmin  bool      `gorm:"column:is_superadmin" json:"is_superadmin"`
	EmailVerified *bool     `gorm:"column:email_verified" json:"email_verified,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }
