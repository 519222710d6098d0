package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminKeyHeader carries the admin secret on administrative requests.
const AdminKeyHeader = "X-Admin-Key"

// AdminKeyAuth gates administrative routes behind the configured admin
// secret. The check runs before any store access; a missing or mismatched
// header aborts with 401. Comparison is constant-time.
func AdminKeyAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			slog.Error("admin key not configured, rejecting administrative request")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin API key"})
			c.Abort()
			return
		}

		presented := c.Request.Header.Get(AdminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(adminKey)) != 1 {
			slog.Warn("rejected administrative request", "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
