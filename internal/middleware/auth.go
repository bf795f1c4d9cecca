// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"questlab/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the session token from the Authorization header or
// the auth cookie and stores the authenticated user ID in the request
// context. Requests without a valid token are rejected.
func AuthMiddleware(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		userID, err := tokens.ParseToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// OptionalAuth records the user ID when a valid token is present but lets
// anonymous requests through. Used on public routes whose response depends
// on who is asking, like draft visibility.
func OptionalAuth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := tokenFromRequest(c); raw != "" {
			if userID, err := tokens.ParseToken(raw); err == nil {
				c.Set("userID", userID)
			}
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}
