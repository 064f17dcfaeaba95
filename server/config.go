package server

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// Application-level sentinel errors for missing configuration.
var (
	ErrDBDSNNotSet      = errors.New("DB_DSN not set")
	ErrAuthSecretNotSet = errors.New("AUTH_SECRET not set")
)

// writeError writes the standardized JSON error shape for Gin handlers.
func writeError(c *gin.Context, status int, code, description string) {
	c.JSON(status, gin.H{
		"error":             code,
		"error_description": description,
	})
}

// abortError writes the error shape and stops the handler chain.
func abortError(c *gin.Context, status int, code, description string) {
	writeError(c, status, code, description)
	c.Abort()
}
