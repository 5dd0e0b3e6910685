package authorization

import (
	"net/http"

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
	l := zap.L().Named("authorization.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("authorization.handler")
	}
	return &Handler{service: service, registry: registry, logger: l}
}

func getResolverID(c *gin.Context) string {
	resolverID := c.GetString("employee_id")
	if resolverID == "" {
		resolverID = c.GetString("user_id_validated")
	}
	return resolverID
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("authorization request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) resolveTenant(c *gin.Context) (*tenant.Handle, bool) {
	handle, err := h.registry.Resolve(c.Request.Context(), c.GetString("company_id"))
	if err != nil {
		h.writeServiceError(c, err)
		return nil, false
	}
	return handle, true
}

func (h *Handler) ListPending(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	branchID := c.Query("branch_id")
	resp, err := h.service.ListPendingForBranch(c.Request.Context(), handle, branchID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListByShift(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	resp, err := h.service.ListByShift(c.Request.Context(), handle, c.Param("shift_id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), handle, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) SubmitReason(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var req SubmitReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http submit reason validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	resp, err := h.service.SubmitEmployeeReason(c.Request.Context(), handle, c.Param("id"), req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http approve validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	resp, err := h.service.Approve(c.Request.Context(), handle, c.Param("id"), getResolverID(c), req.OvertimeSubtype)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http reject validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	resp, err := h.service.Reject(c.Request.Context(), handle, c.Param("id"), getResolverID(c), req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
