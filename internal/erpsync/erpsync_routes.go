package erpsync

import (
	"go-workforce/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RegisterWebhookRoutes mounts the ERP push endpoints. They authenticate
// with the shared webhook secret instead of a user token, and replay the
// cached response for a repeated Idempotency-Key.
func RegisterWebhookRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb *redis.Client,
	webhookSecret string,
) {
	hooks := r.Group("/webhooks/erp")
	hooks.Use(middleware.WebhookAuth(webhookSecret))
	hooks.Use(middleware.Idempotency(rdb))
	{
		hooks.POST("/attendance", handler.Attendance)
		hooks.POST("/shifts", handler.ShiftUpsert)
		hooks.POST("/shifts/delete", handler.ShiftDelete)
		hooks.POST("/pos/sessions", handler.POSSession)
		hooks.POST("/pos/orders", handler.POSOrder)
	}
}
