package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crewdeskhq/crewdesk/authz"
)

// context keys set by AuthMiddleware.
const (
	ctxAuthKey   = "auth_ctx"
	ctxBearerKey = "bearer_token"
)

// AuthMiddleware validates the bearer credential and attaches the resolved
// AuthorizationContext to the request. It runs first, before any permission
// or workspace guard. A revoked credential fails exactly like an invalid one.
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "missing authorization header")
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "invalid authorization header format")
			return
		}
		token := parts[1]

		ac, err := s.Engine.Authorize(c.Request.Context(), token)
		if err != nil {
			s.writeEngineError(c, err)
			c.Abort()
			return
		}

		// Deny-list lookup only after the credential verified; a garbage
		// token never costs a revocation-store read.
		if s.Revocation != nil {
			revoked, err := s.Revocation.IsRevoked(c.Request.Context(), token)
			if err != nil {
				s.Log.WithError(err).Error("revocation check failed")
				abortError(c, http.StatusInternalServerError, "server_error", "revocation check failed")
				return
			}
			if revoked {
				abortError(c, http.StatusUnauthorized, "unauthorized", "credential has been revoked")
				return
			}
		}

		c.Set(ctxAuthKey, ac)
		c.Set(ctxBearerKey, token)
		c.Next()
	}
}

// AuthContextFrom retrieves the AuthorizationContext set by AuthMiddleware.
// Returns nil if the middleware did not run.
func AuthContextFrom(c *gin.Context) *authz.AuthorizationContext {
	if v, exists := c.Get(ctxAuthKey); exists {
		if ac, ok := v.(*authz.AuthorizationContext); ok {
			return ac
		}
	}
	return nil
}

// BearerFrom retrieves the raw bearer token set by AuthMiddleware.
func BearerFrom(c *gin.Context) string {
	if v, exists := c.Get(ctxBearerKey); exists {
		if t, ok := v.(string); ok {
			return t
		}
	}
	return ""
}

// writeEngineError maps the engine's error taxonomy to HTTP statuses:
// unauthenticated -> 401, forbidden -> 403 (trial_expired payload carries the
// trial end date), resource gone -> 410, graph conflict -> 409, everything
// else (storage) -> 500.
func (s *Server) writeEngineError(c *gin.Context, err error) {
	switch authz.KindOf(err) {
	case authz.KindUnauthenticated:
		writeError(c, http.StatusUnauthorized, "unauthorized", err.Error())
	case authz.KindForbidden:
		var e *authz.Error
		if authz.ReasonOf(err) == authz.ReasonTrialExpired && errors.As(err, &e) && e.TrialEndsAt != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error":             "trial_expired",
				"error_description": err.Error(),
				"trial_ends_at":     e.TrialEndsAt,
			})
			return
		}
		writeError(c, http.StatusForbidden, string(authz.ReasonOf(err)), err.Error())
	case authz.KindResourceGone:
		writeError(c, http.StatusGone, "resource_gone", err.Error())
	case authz.KindGraphConflict:
		writeError(c, http.StatusConflict, string(authz.ReasonOf(err)), err.Error())
	default:
		s.Log.WithError(err).Error("engine failure")
		writeError(c, http.StatusInternalServerError, "server_error", "internal error")
	}
}

// writeDecision maps a non-allowed Decision to its HTTP response.
func (s *Server) writeDecision(c *gin.Context, d authz.Decision) {
	switch d.Status {
	case authz.StatusNotFound:
		writeError(c, http.StatusNotFound, "not_found", "resource not found")
	case authz.StatusForbidden:
		if d.Reason == authz.ReasonTrialExpired {
			c.JSON(http.StatusForbidden, gin.H{
				"error":             "trial_expired",
				"error_description": "workspace trial has ended",
				"trial_ends_at":     d.TrialEndsAt,
			})
			return
		}
		writeError(c, http.StatusForbidden, string(d.Reason), "access denied")
	}
}
