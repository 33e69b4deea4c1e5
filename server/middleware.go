package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/worklens/worklens/server/database"
	"github.com/worklens/worklens/zapctx"
)

// loggerMiddleware adds a zap logger to the request context
func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := zapctx.WithLogger(c.Request.Context(), logger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

const roleAdmin = "admin"

// Identity is the caller as established by the external authentication
// collaborator. Credentials are never checked here; this core only checks
// record ownership.
type Identity struct {
	UserID    string
	CompanyID string
	Role      string
}

func (id Identity) IsAdmin() bool {
	return id.Role == roleAdmin
}

const identityKey = "identity"

// identityMiddleware extracts the pre-validated caller identity from the
// gateway headers. Requests without a user and company are rejected.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := Identity{
			UserID:    c.GetHeader("X-User-ID"),
			CompanyID: c.GetHeader("X-Company-ID"),
			Role:      c.GetHeader("X-Role"),
		}
		if ident.UserID == "" || ident.CompanyID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing caller identity"})
			return
		}
		c.Set(identityKey, ident)
		c.Next()
	}
}

func identityFrom(c *gin.Context) Identity {
	v, _ := c.Get(identityKey)
	ident, _ := v.(Identity)
	return ident
}

// requireAdmin gates admin-only queries on the caller's role.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identityFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}
		c.Next()
	}
}

// respondStoreError maps store errors onto the API error contract.
// Unrecognized errors are logged and surface as 500.
func respondStoreError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, database.ErrOwnership):
		c.JSON(http.StatusForbidden, gin.H{"error": "Record belongs to another user or company"})
	case errors.Is(err, database.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Record state does not allow this operation"})
	case errors.Is(err, database.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		zapctx.Error(c.Request.Context(), msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
