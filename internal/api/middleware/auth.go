package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adamscao/certwatch/internal/auth"
)

// AgentAuth checks the bearer token against the configured bcrypt hashes.
// With no hashes configured every request is let through.
func AgentAuth(tokenHashes []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(tokenHashes) == 0 {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Agent token required",
			})
			c.Abort()
			return
		}

		if !auth.VerifyToken(strings.TrimSpace(token), tokenHashes) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Invalid agent token",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
