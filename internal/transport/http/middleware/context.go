package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/infra/security"
)

const (
	// UserKey is the context key for the authenticated principal.
	UserKey = "user"
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey = "user_id"
	// ClaimsKey is the context key for verified access token claims.
	ClaimsKey = "claims"
)

// GetUser retrieves the authenticated user from the Gin context.
func GetUser(c *gin.Context) *domain.User {
	val, exists := c.Get(UserKey)
	if !exists {
		return nil
	}
	user, ok := val.(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetClaims retrieves the verified access token claims from the Gin context.
func GetClaims(c *gin.Context) *security.AccessClaims {
	val, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := val.(*security.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetUserID retrieves the authenticated user ID from the Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
