package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader is the shared-secret header checked on every route when
// an API key is configured.
const APIKeyHeader = "X-API-KEY"

// APIKeyAuth returns a middleware enforcing an exact shared-secret
// match. An empty configured key disables the check entirely.
// Preflight requests pass through so CORS keeps working for
// authenticated clients.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		provided := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		c.Next()
	}
}
