package middleware

import (
	"context"
	"net/http"

	"go-workforce/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService is the slice of the rbac service this middleware needs.
// Declaring it locally keeps the middleware package free of feature imports.
type RBACService interface {
	Enforce(ctx context.Context, companyID, employeeID, resource, action string) (bool, error)
}

// RBACAuthorize gates a route on one resource/action pair. It assumes
// AuthMiddleware already populated the caller identity.
func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID := c.GetString("employee_id")
		companyID := c.GetString("company_id")
		if employeeID == "" || companyID == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing auth context", nil)
			c.Abort()
			return
		}

		allowed, err := service.Enforce(c.Request.Context(), companyID, employeeID, resource, action)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization check failed", nil)
			c.Abort()
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, "FORBIDDEN",
				"You do not have permission to access this resource",
				gin.H{"required": resource + ":" + action},
			)
			c.Abort()
			return
		}
		c.Next()
	}
}
