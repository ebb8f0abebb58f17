package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/common/auth"
	"storefront-service/common/logger"
)

const (
	UserContextKey  = "userID"
	RoleContextKey  = "role"
	EmailContextKey = "email"
	AdminRole       = "admin"
)

// TokenParser verifies a bearer token and returns its claims
type TokenParser interface {
	Parse(token string) (*auth.SupabaseClaims, error)
}

// OptionalAuth identifies the caller when a valid token is present. Requests
// without one, or with one that fails verification, continue as guests.
func OptionalAuth(verifier TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.Next()
			return
		}
		claims, err := verifier.Parse(token)
		if err != nil {
			logger.Warn(c, "Ignoring invalid token on guest route")
			c.Next()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

func RequireAuth(verifier TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, err := verifier.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// AdminOnly must run after RequireAuth
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *auth.SupabaseClaims) {
	c.Set(UserContextKey, claims.Subject)
	c.Set(EmailContextKey, claims.Email)
	if claims.IsAdmin() {
		c.Set(RoleContextKey, AdminRole)
	} else {
		c.Set(RoleContextKey, claims.Role)
	}
}

func GetUserID(c *gin.Context) (string, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("user ID not found in context")
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(RoleContextKey) == AdminRole
}
