package rbac

import (
	"go-workforce/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware(), middleware.ExtractUserID(), middleware.ContextLogger())
	{
		group.GET("/permissions",
			middleware.RateLimitByUser(2, 5),
			handler.Permissions,
		)
	}
}
