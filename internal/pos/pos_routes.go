package pos

import (
	"go-workforce/internal/middleware"
	"go-workforce/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	events := r.Group("/pos/events")
	events.Use(middleware.AuthMiddleware(), middleware.ExtractUserID(), middleware.ContextLogger())
	{
		events.GET("",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "pos", "read"),
			handler.ListByBranch,
		)
	}
}
