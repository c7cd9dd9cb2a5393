// Package middlewares holds gin middleware shared across route groups.
package middlewares

import (
	"net/http"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"github.com/gin-gonic/gin"
)

// InternalApiKeyMiddleware guards the internal API surface (settlement
// submission, run management, ops). The caller sends the raw key in
// X-Api-Key; only its bcrypt hash lives in the environment, so a leaked env
// dump does not leak the key itself.
func InternalApiKeyMiddleware() gin.HandlerFunc {
	hashed := strings.TrimSpace(os.Getenv("INTERNAL_API_KEY_HASH"))
	return func(c *gin.Context) {
		if hashed == "" {
			// Fail closed when the key is not configured.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		key := c.GetHeader("X-Api-Key")
		if key == "" || utils.CompareApiKey(hashed, key) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
