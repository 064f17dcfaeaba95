package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crewdeskhq/crewdesk/permission"
)

// RequirePermission returns a middleware enforcing that every given grant is
// held (ALL-of). Must run after AuthMiddleware.
func (s *Server) RequirePermission(grants ...permission.Grant) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := AuthContextFrom(c)
		if ac == nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", "missing authorization context")
			return
		}
		if d := ac.RequirePermission(grants...); !d.Allowed() {
			s.writeDecision(c, d)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnyPermission returns a middleware enforcing that at least one given
// grant is held (ANY-of). Must run after AuthMiddleware.
func (s *Server) RequireAnyPermission(grants ...permission.Grant) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := AuthContextFrom(c)
		if ac == nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", "missing authorization context")
			return
		}
		if d := ac.RequireAnyPermission(grants...); !d.Allowed() {
			s.writeDecision(c, d)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireWorkspaceAccess returns a middleware enforcing the workspace
// relationship check on the :workspaceId path parameter. Handlers must sit
// behind this before touching any workspace-scoped table; it runs before
// module-scoped permission guards when both apply. mutating selects whether
// the subscription gate applies; read-only listing routes pass false.
func (s *Server) RequireWorkspaceAccess(mutating bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := AuthContextFrom(c)
		if ac == nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", "missing authorization context")
			return
		}
		workspaceID := c.Param("workspaceId")
		if workspaceID == "" {
			abortError(c, http.StatusBadRequest, "invalid_request", "missing workspace id")
			return
		}
		d, err := s.Engine.RequireWorkspaceAccess(c.Request.Context(), ac, workspaceID, mutating)
		if err != nil {
			s.writeEngineError(c, err)
			c.Abort()
			return
		}
		if !d.Allowed() {
			s.writeDecision(c, d)
			c.Abort()
			return
		}
		c.Next()
	}
}
