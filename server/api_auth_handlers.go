package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewdeskhq/crewdesk/generates"
)

// HandleLogin authenticates a user by username and password and mints a
// bearer credential. The resolved workspace id is embedded as the tenant hint
// so the credential round-trips back to the same workspace.
func (s *Server) HandleLogin(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(payload.Username) == "" || strings.TrimSpace(payload.Password) == "" {
		writeError(c, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	user, err := s.Users.GetByUsername(c.Request.Context(), payload.Username)
	if err != nil {
		s.Log.WithError(err).Error("load user for login")
		writeError(c, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)) != nil {
		writeError(c, http.StatusUnauthorized, "invalid_grant", "invalid username or password")
		return
	}
	if !user.Active {
		writeError(c, http.StatusUnauthorized, "invalid_grant", "account is deactivated")
		return
	}

	// Tenant hint: explicit workspace on the identity, else the
	// most-recently-joined active membership.
	workspaceID := ""
	if user.WorkspaceID != nil {
		workspaceID = *user.WorkspaceID
	} else {
		m, err := s.Workspaces.LatestActiveMembership(c.Request.Context(), user.ID)
		if err != nil {
			s.Log.WithError(err).Error("resolve membership for login")
			writeError(c, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
		if m != nil {
			workspaceID = m.WorkspaceID
		}
	}

	access, err := s.Tokens.Token(c.Request.Context(), user.ID, workspaceID)
	if err != nil {
		s.Log.WithError(err).Error("mint credential")
		writeError(c, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	expiry := s.Tokens.Config.Expiry
	if expiry <= 0 {
		expiry = generates.DefaultExpiry
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   int64(expiry / time.Second),
		"workspace_id": workspaceID,
	})
}

// HandleLogout revokes the presented credential until its natural expiry.
func (s *Server) HandleLogout(c *gin.Context) {
	token := BearerFrom(c)
	ac := AuthContextFrom(c)
	if token == "" || ac == nil {
		writeError(c, http.StatusUnauthorized, "unauthorized", "missing authorization context")
		return
	}
	expiry := s.Tokens.Config.Expiry
	if expiry <= 0 {
		expiry = generates.DefaultExpiry
	}
	if err := s.Revocation.Revoke(c.Request.Context(), token, time.Now().Add(expiry)); err != nil {
		s.Log.WithError(err).Error("revoke credential")
		writeError(c, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": true})
}

// HandleWhoAmI returns the resolved authorization context for the caller.
func (s *Server) HandleWhoAmI(c *gin.Context) {
	ac := AuthContextFrom(c)
	if ac == nil {
		writeError(c, http.StatusUnauthorized, "unauthorized", "missing authorization context")
		return
	}
	resp := gin.H{
		"user_id":     ac.Identity.ID,
		"username":    ac.Identity.Username,
		"roles":       ac.RoleNames,
		"permissions": ac.Grants.Strings(),
		"super_admin": ac.SuperAdmin,
	}
	if ac.Workspace != nil {
		resp["workspace_id"] = ac.Workspace.ID
	}
	c.JSON(http.StatusOK, resp)
}
