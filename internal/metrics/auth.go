package metrics

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth protects /metrics with a static key.
// An empty key disables the check. The key is read from X-API-Key or "Authorization: Bearer <key>".
func APIKeyAuth(expected string) gin.HandlerFunc {
	expected = strings.TrimSpace(expected)

	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		provided := extractAPIKey(c)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			c.AbortWithStatus(401)
			return
		}
		c.Next()
	}
}

func extractAPIKey(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader("X-API-Key")); v != "" {
		return v
	}
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
