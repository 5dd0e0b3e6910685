package erpsync

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
	l := zap.L().Named("erpsync.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("erpsync.handler")
	}
	return &Handler{service: service, registry: registry, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("erp webhook failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) resolveTenant(c *gin.Context) (*tenant.Handle, bool) {
	companyID := c.GetHeader("X-Company-ID")
	if companyID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "X-Company-ID header is required", nil)
		return nil, false
	}
	handle, err := h.registry.Resolve(c.Request.Context(), companyID)
	if err != nil {
		h.writeServiceError(c, err)
		return nil, false
	}
	return handle, true
}

func (h *Handler) Attendance(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var p AttendancePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	res, err := h.service.IngestAttendance(c.Request.Context(), handle, p)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) ShiftUpsert(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var p ShiftPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	res, err := h.service.IngestShift(c.Request.Context(), handle, p)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	response.Success(c, status, res, nil)
}

func (h *Handler) ShiftDelete(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var p ShiftDeletePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	if err := h.service.IngestShiftDelete(c.Request.Context(), handle, p); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

func (h *Handler) POSSession(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var p POSSessionPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	created, err := h.service.IngestPOSSession(c.Request.Context(), handle, p)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": created}, nil)
}

func (h *Handler) POSOrder(c *gin.Context) {
	handle, ok := h.resolveTenant(c)
	if !ok {
		return
	}

	var p POSOrderPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	created, err := h.service.IngestPOSOrder(c.Request.Context(), handle, p)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": created}, nil)
}
