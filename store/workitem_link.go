package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/crewdeskhq/crewdesk/models"
)

// WorkItemLinkStore handles work-item link persistence. The graph validator
// re-derives reachability from these rows on every call; nothing here is
// cached in memory.
type WorkItemLinkStore struct{ DB *gorm.DB }

func NewWorkItemLinkStore(db *gorm.DB) *WorkItemLinkStore { return &WorkItemLinkStore{DB: db} }

// LinkExists reports whether the exact (source, target, type) edge exists in
// the workspace.
func (s *WorkItemLinkStore) LinkExists(ctx context.Context, workspaceID, sourceID, targetID string, t models.LinkType) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Table("work_item_links").
		Where("workspace_id = ? AND source_id = ? AND target_id = ? AND link_type = ?", workspaceID, sourceID, targetID, string(t)).
		Count(&count).Error
	return count > 0, err
}

// BlockingSuccessors returns the items directly blocked by any of the given
// items, with blocked_by rows normalized to their inverse blocks direction.
// A row (a, b, blocks) and a row (b, a, blocked_by) both contribute the edge
// a -> b.
func (s *WorkItemLinkStore) BlockingSuccessors(ctx context.Context, workspaceID string, itemIDs []string) ([]string, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var out []string
	err := s.DB.WithContext(ctx).Raw(`
		SELECT target_id FROM work_item_links
		WHERE workspace_id = ? AND link_type = ? AND source_id IN ?
		UNION
		SELECT source_id FROM work_item_links
		WHERE workspace_id = ? AND link_type = ? AND target_id IN ?`,
		workspaceID, string(models.LinkBlocks), itemIDs,
		workspaceID, string(models.LinkBlockedBy), itemIDs).Scan(&out).Error
	return out, err
}

// Create inserts a link row. Graph-integrity checks belong to the validator;
// insertion itself is unconditional.
func (s *WorkItemLinkStore) Create(ctx context.Context, link *models.WorkItemLink) error {
	if link.ID == "" {
		link.ID = models.NewID()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	return s.DB.WithContext(ctx).Create(link).Error
}

// Delete removes a link. Removing edges cannot introduce a cycle, so there is
// no precondition.
func (s *WorkItemLinkStore) Delete(ctx context.Context, workspaceID, linkID string) error {
	return s.DB.WithContext(ctx).Where("workspace_id = ? AND id = ?", workspaceID, linkID).Delete(&models.WorkItemLink{}).Error
}

// ListForItem returns every link touching the item, newest first.
func (s *WorkItemLinkStore) ListForItem(ctx context.Context, workspaceID, itemID string) ([]models.WorkItemLink, error) {
	var links []models.WorkItemLink
	err := s.DB.WithContext(ctx).
		Where("workspace_id = ? AND (source_id = ? OR target_id = ?)", workspaceID, itemID, itemID).
		Order("created_at DESC").Find(&links).Error
	return links, err
}
