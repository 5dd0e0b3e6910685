package pos

import (
	"net/http"
	"strconv"

	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/shared/response"
	"go-workforce/internal/tenant"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service  Service
	registry tenant.Registry
	logger   *zap.Logger
}

func NewHandler(service Service, registry tenant.Registry, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("pos.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("pos.handler")
	}
	return &Handler{service: service, registry: registry, logger: l}
}

func (h *Handler) ListByBranch(c *gin.Context) {
	handle, err := h.registry.Resolve(c.Request.Context(), c.GetString("company_id"))
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.service.ListByBranch(c.Request.Context(), handle, c.Query("branch_id"), limit)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		h.logger.Warn("pos request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", httpErr.Status),
			zap.String("code", httpErr.Code),
		)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}
	response.Success(c, http.StatusOK, resp, response.NewListMeta(len(resp), limit))
}
