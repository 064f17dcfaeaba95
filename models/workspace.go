package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PlanType is an enum-like string type for a workspace's billing plan.
type PlanType string

const (
	PlanTrial    PlanType = "trial"
	PlanStandard PlanType = "standard"
	PlanPremium  PlanType = "premium"
)

// IsValid returns true if t is one of the allowed constants.
func (t PlanType) IsValid() bool {
	s := strings.ToLower(string(t))
	return s == string(PlanTrial) || s == string(PlanStandard) || s == string(PlanPremium)
}

// IsTrial reports whether the plan is gated by the trial-end timestamp.
func (t PlanType) IsTrial() bool {
	return strings.EqualFold(string(t), string(PlanTrial))
}

// UnmarshalJSON implements strict validation for PlanType.
func (t *PlanType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	pt := PlanType(s)
	if !pt.IsValid() {
		return fmt.Errorf("invalid plan type: %q (allowed: 'trial','standard','premium')", s)
	}
	*t = pt
	return nil
}

// Workspace is the tenant scope: a project-management context bound 1:1 to one
// underlying business project. If that project is gone or soft-deleted the
// workspace is functionally dead even while its row still exists.
type Workspace struct {
	ID             string     `gorm:"column:id;primaryKey" json:"id"`
	Name           string     `gorm:"column:name" json:"name"`
	OwnerID        string     `gorm:"column:owner_id;index" json:"owner_id"`
	ProjectID      string     `gorm:"column:project_id;uniqueIndex" json:"project_id"`
	Plan           PlanType   `gorm:"column:plan" json:"plan"`
	Status         string     `gorm:"column:status" json:"status"`
	TrialEndsAt    *time.Time `gorm:"column:trial_ends_at" json:"trial_ends_at,omitempty"`
	SubscriptionID *string    `gorm:"column:subscription_id" json:"subscription_id,omitempty"`
	Active         bool       `gorm:"column:active" json:"active"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Workspace) TableName() string { return "workspaces" }

// MemberStatus values for WorkspaceMember.Status.
const (
	MemberActive  = "active"
	MemberInvited = "invited"
	MemberRemoved = "removed"
)

// WorkspaceMember links a user to a workspace with a privilege tier. The
// workspace owner is implicitly a member of the highest tier even without a
// row here.
type WorkspaceMember struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	WorkspaceID string    `gorm:"column:workspace_id;index" json:"workspace_id"`
	UserID      string    `gorm:"column:user_id;index" json:"user_id"`
	Role        string    `gorm:"column:role" json:"role"`
	Status      string    `gorm:"column:status" json:"status"`
	JoinedAt    time.Time `gorm:"column:joined_at" json:"joined_at"`
}

func (WorkspaceMember) TableName() string { return "workspace_members" }
