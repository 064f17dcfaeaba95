package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/crewdeskhq/crewdesk/models"
)

// ErrProjectGone marks a workspace whose underlying business project no longer
// exists or is soft-deleted. The workspace row may still be present while
// being functionally dead; callers treat this as distinct from not-found.
var ErrProjectGone = errors.New("workspace project is gone")

// WorkspaceStore handles workspace and membership persistence.
type WorkspaceStore struct{ DB *gorm.DB }

func NewWorkspaceStore(db *gorm.DB) *WorkspaceStore { return &WorkspaceStore{DB: db} }

// GetActive returns the workspace if it is active and not soft-deleted, and
// its underlying project still exists. Returns (nil, nil) when the workspace
// is missing or inactive, and (nil, ErrProjectGone) when the workspace row
// exists but its project is gone.
func (s *WorkspaceStore) GetActive(ctx context.Context, id string) (*models.Workspace, error) {
	var ws models.Workspace
	err := s.DB.WithContext(ctx).Raw(`SELECT * FROM workspaces WHERE id = ?`, id).Scan(&ws).Error
	if err != nil {
		return nil, err
	}
	if ws.ID == "" || !ws.Active {
		return nil, nil
	}
	var alive int64
	err = s.DB.WithContext(ctx).Table("projects").
		Where("id = ? AND deleted_at IS NULL", ws.ProjectID).
		Count(&alive).Error
	if err != nil {
		return nil, err
	}
	if alive == 0 {
		return nil, ErrProjectGone
	}
	return &ws, nil
}

// LatestActiveMembership returns the user's most-recently-joined active
// membership, or (nil, nil) when the user belongs to no workspace.
func (s *WorkspaceStore) LatestActiveMembership(ctx context.Context, userID string) (*models.WorkspaceMember, error) {
	var m models.WorkspaceMember
	err := s.DB.WithContext(ctx).Raw(`
		SELECT m.* FROM workspace_members m
		JOIN workspaces w ON w.id = m.workspace_id
		WHERE m.user_id = ? AND m.status = ? AND w.active = TRUE
		ORDER BY m.joined_at DESC LIMIT 1`, userID, models.MemberActive).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, nil
	}
	return &m, nil
}

// HasActiveMembership reports whether the user holds an active membership row
// in the workspace.
func (s *WorkspaceStore) HasActiveMembership(ctx context.Context, workspaceID, userID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Table("workspace_members").
		Where("workspace_id = ? AND user_id = ? AND status = ?", workspaceID, userID, models.MemberActive).
		Count(&count).Error
	return count > 0, err
}

// AddMember inserts a membership row.
func (s *WorkspaceStore) AddMember(ctx context.Context, m *models.WorkspaceMember) error {
	if m.ID == "" {
		m.ID = models.NewID()
	}
	if m.Status == "" {
		m.Status = models.MemberActive
	}
	return s.DB.WithContext(ctx).Create(m).Error
}

// Create inserts a workspace row.
func (s *WorkspaceStore) Create(ctx context.Context, ws *models.Workspace) error {
	if ws.ID == "" {
		ws.ID = models.NewID()
	}
	return s.DB.WithContext(ctx).Create(ws).Error
}
