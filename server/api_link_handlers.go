package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crewdeskhq/crewdesk/authz"
	"github.com/crewdeskhq/crewdesk/models"
)

// HandleCreateLink validates and persists a work-item link. The graph
// validator runs synchronously before the insert; its conflicts are reported
// verbatim because the user can act on them by picking a different pair.
func (s *Server) HandleCreateLink(c *gin.Context) {
	ac := AuthContextFrom(c)
	workspaceID := c.Param("workspaceId")

	var payload struct {
		SourceID string          `json:"source_id"`
		TargetID string          `json:"target_id"`
		Type     models.LinkType `json:"link_type"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(payload.SourceID) == "" || strings.TrimSpace(payload.TargetID) == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "source_id and target_id are required")
		return
	}

	err := s.Validator.CanInsert(c.Request.Context(), workspaceID, payload.SourceID, payload.TargetID, payload.Type)
	if err != nil {
		if authz.KindOf(err) == authz.KindGraphConflict {
			writeError(c, http.StatusConflict, string(authz.ReasonOf(err)), err.Error())
			return
		}
		s.Log.WithError(err).Error("validate link")
		writeError(c, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	link := &models.WorkItemLink{
		WorkspaceID: workspaceID,
		SourceID:    payload.SourceID,
		TargetID:    payload.TargetID,
		Type:        payload.Type,
		CreatedBy:   ac.Identity.ID,
	}
	if err := s.Links.Create(c.Request.Context(), link); err != nil {
		s.Log.WithError(err).Error("create link")
		writeError(c, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	c.JSON(http.StatusCreated, link)
}

// HandleDeleteLink removes a link. Removing edges cannot introduce a cycle,
// so there is no graph precondition.
func (s *Server) HandleDeleteLink(c *gin.Context) {
	workspaceID := c.Param("workspaceId")
	linkID := c.Param("linkId")
	if err := s.Links.Delete(c.Request.Context(), workspaceID, linkID); err != nil {
		s.Log.WithError(err).Error("delete link")
		writeError(c, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// HandleListLinks lists the links touching a work item.
func (s *Server) HandleListLinks(c *gin.Context) {
	workspaceID := c.Param("workspaceId")
	itemID := c.Param("itemId")
	links, err := s.Links.ListForItem(c.Request.Context(), workspaceID, itemID)
	if err != nil {
		s.Log.WithError(err).Error("list links")
		writeError(c, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}
