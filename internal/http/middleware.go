package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messagely/internal/auth"
)

const callerKey = "caller_username"

// RequireAuth verifies the bearer token on an inbound request and attaches
// the resolved username for downstream handlers. Requests without a valid
// token are rejected before any handler logic runs.
func RequireAuth(tokens *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		username, err := tokens.Verify(strings.TrimSpace(header[len("Bearer "):]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(callerKey, username)
		c.Next()
	}
}

// RequireSelf rejects requests whose caller identity does not match the
// :username route parameter. It runs after RequireAuth.
func RequireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Caller(c) != c.Param("username") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// Caller returns the username attached by RequireAuth, or "" when the
// request was not authenticated.
func Caller(c *gin.Context) string {
	if v, ok := c.Get(callerKey); ok {
		if username, ok := v.(string); ok {
			return username
		}
	}
	return ""
}
