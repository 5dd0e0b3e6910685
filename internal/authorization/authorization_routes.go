package authorization

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
	authorizations := r.Group("/authorizations")
	authorizations.Use(middleware.AuthMiddleware(), middleware.ExtractUserID(), middleware.ContextLogger())
	{
		authorizations.GET("",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "authorization", "read"),
			handler.ListPending,
		)
		authorizations.GET("/:id",
			middleware.RateLimitByUser(2, 5),
			middleware.RBACAuthorize(rbacService, "authorization", "read"),
			handler.GetByID,
		)
		authorizations.POST("/:id/reason",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, "authorization", "respond"),
			handler.SubmitReason,
		)
		authorizations.POST("/:id/approve",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, "authorization", "approve"),
			handler.Approve,
		)
		authorizations.POST("/:id/reject",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, "authorization", "approve"),
			handler.Reject,
		)
	}

	shifts := r.Group("/shifts")
	shifts.Use(middleware.AuthMiddleware(), middleware.ExtractUserID(), middleware.ContextLogger())
	{
		shifts.GET("/:shift_id/authorizations",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "authorization", "read"),
			handler.ListByShift,
		)
	}
}
