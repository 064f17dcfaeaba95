package models

import "time"

// ProtectedRoleName is the distinguished all-access role. It can be read but
// never edited or deleted through the engine.
const ProtectedRoleName = "admin"

// Role is a named permission bundle. Roles are many-to-many with users via
// UserRole; a user with no UserRole rows falls back to the legacy role label
// on the users table, resolved by name.
type Role struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;uniqueIndex" json:"name"`
	DisplayName string    `gorm:"column:display_name" json:"display_name"`
	Protected   bool      `gorm:"column:protected" json:"protected"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Role) TableName() string { return "roles" }

// Permission is a single (module, action) grant definition.
type Permission struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Module      string    `gorm:"column:module;index:idx_permissions_module_action,unique" json:"module"`
	Action      string    `gorm:"column:action;index:idx_permissions_module_action,unique" json:"action"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Permission) TableName() string { return "permissions" }

// RolePermission links roles to permissions.
type RolePermission struct {
	ID           string    `gorm:"column:id;primaryKey"`
	RoleID       string    `gorm:"column:role_id;index"`
	PermissionID string    `gorm:"column:permission_id;index"`
	AssignedAt   time.Time `gorm:"column:assigned_at"`
}

func (RolePermission) TableName() string { return "role_permissions" }

// UserRole links users to explicitly assigned roles.
type UserRole struct {
	ID         string    `gorm:"column:id;primaryKey"`
	UserID     string    `gorm:"column:user_id;index"`
	RoleID     string    `gorm:"column:role_id;index"`
	AssignedAt time.Time `gorm:"column:assigned_at"`
}

func (UserRole) TableName() string { return "user_roles" }
