package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"briddhi-be/models"
	authUtils "briddhi-be/utils"
)

// Context keys set by RequireAuth.
const (
	CtxAccountID = "account_id"
	CtxRole      = "role"
)

// RequireAuth resolves the bearer token into (account id, role) on the gin
// context. Missing, malformed, or expired tokens always get 401; role checks
// are a separate concern (RequireRoles) so the two failure kinds never blur.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			c.Abort()
			return
		}

		claims, err := authUtils.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			c.Abort()
			return
		}

		c.Set(CtxAccountID, claims.AccountID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRoles rejects with 403 when the resolved role is not in the allowed
// set. Must run after RequireAuth.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		roleVal, exists := c.Get(CtxRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}
		if role, ok := roleVal.(models.Role); !ok || !allowed[role] {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerToken pulls the token from the Authorization header, falling back to
// the token query parameter for websocket dials that cannot set headers.
func bearerToken(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return authHeader[7:]
		}
		return authHeader
	}
	return c.Query("token")
}
