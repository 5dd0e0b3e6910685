package exchange

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
	exchanges := r.Group("/exchanges")
	exchanges.Use(middleware.AuthMiddleware(), middleware.ExtractUserID(), middleware.ContextLogger())
	{
		exchanges.GET("",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "exchange", "read"),
			handler.ListMine,
		)
		exchanges.GET("/approval-queue",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "exchange", "approve"),
			handler.ListApprovalQueue,
		)
		exchanges.GET("/:id",
			middleware.RateLimitByUser(2, 5),
			middleware.RBACAuthorize(rbacService, "exchange", "read"),
			handler.GetByID,
		)
		exchanges.POST("",
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, "exchange", "propose"),
			handler.Propose,
		)
		exchanges.POST("/:id/respond",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "exchange", "respond"),
			handler.Respond,
		)
		exchanges.POST("/:id/approve",
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, "exchange", "approve"),
			handler.Approve,
		)
		exchanges.POST("/:id/reject",
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, "exchange", "approve"),
			handler.Reject,
		)
	}

	shifts := r.Group("/shifts")
	shifts.Use(middleware.AuthMiddleware(), middleware.ExtractUserID(), middleware.ContextLogger())
	{
		shifts.GET("/:shift_id/exchange-targets",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "exchange", "propose"),
			handler.ListEligibleTargets,
		)
	}
}
