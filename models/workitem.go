package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LinkType is the typed direction of a work-item link.
type LinkType string

const (
	LinkBlocks     LinkType = "blocks"
	LinkBlockedBy  LinkType = "blocked_by"
	LinkRelatesTo  LinkType = "relates_to"
	LinkDuplicates LinkType = "duplicates"
	LinkClones     LinkType = "clones"
)

// IsValid returns true if t is one of the allowed constants.
func (t LinkType) IsValid() bool {
	switch LinkType(strings.ToLower(string(t))) {
	case LinkBlocks, LinkBlockedBy, LinkRelatesTo, LinkDuplicates, LinkClones:
		return true
	}
	return false
}

// IsBlocking reports whether the link participates in cycle checking.
// blocks/blocked_by are the two directions of the same edge; the other types
// are informational and unconstrained.
func (t LinkType) IsBlocking() bool {
	return t == LinkBlocks || t == LinkBlockedBy
}

// Inverse returns the opposite direction for the blocking family, or t itself
// for informational types.
func (t LinkType) Inverse() LinkType {
	switch t {
	case LinkBlocks:
		return LinkBlockedBy
	case LinkBlockedBy:
		return LinkBlocks
	}
	return t
}

// UnmarshalJSON implements strict validation for LinkType.
func (t *LinkType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	lt := LinkType(strings.ToLower(strings.TrimSpace(s)))
	if !lt.IsValid() {
		return fmt.Errorf("invalid link type: %q", s)
	}
	*t = lt
	return nil
}

// WorkItem is a scrum task; items are the nodes of the per-workspace
// dependency graph.
type WorkItem struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	WorkspaceID string    `gorm:"column:workspace_id;index" json:"workspace_id"`
	Title       string    `gorm:"column:title" json:"title"`
	Status      string    `gorm:"column:status" json:"status"`
	CreatedBy   string    `gorm:"column:created_by" json:"created_by"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (WorkItem) TableName() string { return "work_items" }

// WorkItemLink is a directed, typed edge between two work items in the same
// workspace.
type WorkItemLink struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	WorkspaceID string    `gorm:"column:workspace_id;index" json:"workspace_id"`
	SourceID    string    `gorm:"column:source_id;index" json:"source_id"`
	TargetID    string    `gorm:"column:target_id;index" json:"target_id"`
	Type        LinkType  `gorm:"column:link_type" json:"link_type"`
	CreatedBy   string    `gorm:"column:created_by" json:"created_by"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (WorkItemLink) TableName() string { return "work_item_links" }
