package server

import (
	"github.com/gin-gonic/gin"

	"github.com/crewdeskhq/crewdesk/permission"
)

// NewGinEngine builds a Gin router and registers the routes this core owns.
// Business CRUD surfaces live in their own services and call the same guards.
func NewGinEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())

	// Credential issuance is the only unauthenticated surface.
	r.POST("/api/v1/auth/login", s.HandleLogin)

	authed := r.Group("/api/v1")
	authed.Use(s.AuthMiddleware())
	authed.POST("/auth/logout", s.HandleLogout)
	authed.GET("/auth/whoami", s.HandleWhoAmI)

	// Workspace-scoped surfaces: the relationship check runs before the
	// module-scoped permission guard.
	ws := authed.Group("/workspaces/:workspaceId")
	{
		scrumEdit := permission.Grant{Module: permission.ModuleScrum, Action: permission.ActionEdit}
		scrumView := permission.Grant{Module: permission.ModuleScrum, Action: permission.ActionView}

		ws.GET("/items/:itemId/links",
			s.RequireWorkspaceAccess(false),
			s.RequirePermission(scrumView),
			s.HandleListLinks)
		ws.POST("/links",
			s.RequireWorkspaceAccess(true),
			s.RequirePermission(scrumEdit),
			s.HandleCreateLink)
		ws.DELETE("/links/:linkId",
			s.RequireWorkspaceAccess(true),
			s.RequirePermission(scrumEdit),
			s.HandleDeleteLink)
	}

	return r
}
