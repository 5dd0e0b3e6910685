package rbac

import (
	"net/http"

	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

// Permissions returns the acting role and its effective grants for the
// authenticated employee, so clients can hide actions the user cannot take.
func (h *Handler) Permissions(c *gin.Context) {
	out, err := h.service.PermissionsFor(
		c.Request.Context(),
		c.GetString("company_id"),
		c.GetString("employee_id"),
	)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		h.logger.Warn("permissions lookup failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", httpErr.Status),
			zap.String("code", httpErr.Code),
		)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}
	response.Success(c, http.StatusOK, out, nil)
}
