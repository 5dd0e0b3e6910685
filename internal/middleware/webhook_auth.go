package middleware

import (
	"crypto/subtle"
	"net/http"

	"go-workforce/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// WebhookAuth authenticates ERP push deliveries against the shared secret
// carried in X-Webhook-Secret. An empty configured secret rejects
// everything rather than letting traffic through unauthenticated.
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Webhook-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid webhook secret", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
