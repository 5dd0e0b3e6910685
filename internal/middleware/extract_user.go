package middleware

import (
	"net/http"

	"go-workforce/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// ExtractUserID promotes the raw user identity set by AuthMiddleware to the
// validated key handlers read. Handlers trusting "user_id_validated" can
// assume it is a non-empty string.
func ExtractUserID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, exists := ctx.Get("user_id")
		if !exists {
			response.Error(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "User is not authenticated", nil)
			ctx.Abort()
			return
		}

		userIDStr, ok := userID.(string)
		if !ok || userIDStr == "" {
			response.Error(ctx, http.StatusUnauthorized, "INVALID_USER_ID", "User identity has an invalid format", nil)
			ctx.Abort()
			return
		}

		ctx.Set("user_id_validated", userIDStr)
		ctx.Next()
	}
}
