package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// maintenanceHeader carries the shared secret the cron scheduler presents on
// maintenance calls.
const maintenanceHeader = "X-Maintenance-Secret"

// MaintenanceSecret gates the cron-invoked maintenance endpoints behind a
// constant-time comparison of the shared secret header. An empty configured
// secret closes the endpoints entirely rather than leaving them open.
func MaintenanceSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(maintenanceHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "unauthorized",
				"message":    "maintenance secret missing or invalid",
			})
			return
		}
		c.Next()
	}
}
