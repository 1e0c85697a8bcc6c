package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "smsledger/internal/errors"
)

// IngestAuthMiddleware validates the X-API-Key header against the configured
// ingest key. An empty key leaves the route open.
func IngestAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
