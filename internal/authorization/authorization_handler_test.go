package authorization_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-workforce/internal/authorization"
	authorizationerrors "go-workforce/internal/authorization/errors"
	"go-workforce/internal/jobqueue"
	"go-workforce/internal/shift"
	"go-workforce/internal/tenant"
	"go-workforce/internal/tenant/tenanttest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeAuthorizationService struct {
	getByIDFn      func(ctx context.Context, h *tenant.Handle, id string) (authorization.AuthorizationResponse, error)
	listPendingFn  func(ctx context.Context, h *tenant.Handle, branchID string) ([]authorization.AuthorizationResponse, error)
	submitReasonFn func(ctx context.Context, h *tenant.Handle, id, reason string) (authorization.AuthorizationResponse, error)
	approveFn      func(ctx context.Context, h *tenant.Handle, id, resolverID string, overtimeSubtype *string) (authorization.AuthorizationResponse, error)
	rejectFn       func(ctx context.Context, h *tenant.Handle, id, resolverID, reason string) (authorization.AuthorizationResponse, error)
}

func (f *fakeAuthorizationService) ApplyCheckIn(ctx context.Context, h *tenant.Handle, sh *shift.Shift, lg *shift.ShiftLog) error {
	return nil
}

func (f *fakeAuthorizationService) ApplyCheckOut(ctx context.Context, h *tenant.Handle, sh *shift.Shift, lg *shift.ShiftLog, workedMinutes *int) error {
	return nil
}

func (f *fakeAuthorizationService) ReviewEarlyCheckIn(ctx context.Context, job jobqueue.Job) error {
	return nil
}

func (f *fakeAuthorizationService) GetByID(ctx context.Context, h *tenant.Handle, id string) (authorization.AuthorizationResponse, error) {
	return f.getByIDFn(ctx, h, id)
}

func (f *fakeAuthorizationService) ListPendingForBranch(ctx context.Context, h *tenant.Handle, branchID string) ([]authorization.AuthorizationResponse, error) {
	return f.listPendingFn(ctx, h, branchID)
}

func (f *fakeAuthorizationService) ListByShift(ctx context.Context, h *tenant.Handle, shiftID string) ([]authorization.AuthorizationResponse, error) {
	return nil, nil
}

func (f *fakeAuthorizationService) SubmitEmployeeReason(ctx context.Context, h *tenant.Handle, id, reason string) (authorization.AuthorizationResponse, error) {
	return f.submitReasonFn(ctx, h, id, reason)
}

func (f *fakeAuthorizationService) Approve(ctx context.Context, h *tenant.Handle, id, resolverID string, overtimeSubtype *string) (authorization.AuthorizationResponse, error) {
	return f.approveFn(ctx, h, id, resolverID, overtimeSubtype)
}

func (f *fakeAuthorizationService) Reject(ctx context.Context, h *tenant.Handle, id, resolverID, reason string) (authorization.AuthorizationResponse, error) {
	return f.rejectFn(ctx, h, id, resolverID, reason)
}

func newHandlerContext(t *testing.T, handle *tenant.Handle) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", handle.CompanyID)
	c.Set("employee_id", "emp-9")
	c.Set("user_id_validated", "u-9")
	return c, w
}

func TestHandlerSubmitReason(t *testing.T) {
	handle, _ := tenanttest.NewHandle(t, "c-1")

	t.Run("success passes id and reason through", func(t *testing.T) {
		var gotID, gotReason string
		svc := &fakeAuthorizationService{
			submitReasonFn: func(ctx context.Context, h *tenant.Handle, id, reason string) (authorization.AuthorizationResponse, error) {
				assert.Equal(t, "c-1", h.CompanyID)
				gotID, gotReason = id, reason
				return authorization.AuthorizationResponse{ID: id, Status: authorization.StatusPending}, nil
			},
		}
		h := authorization.NewHandler(svc, &fakeRegistry{handle: handle})

		c, w := newHandlerContext(t, handle)
		c.Params = gin.Params{{Key: "id", Value: "auth-1"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/authorizations/auth-1/reason", strings.NewReader(`{"reason":"traffic jam"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.SubmitReason(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "auth-1", gotID)
		assert.Equal(t, "traffic jam", gotReason)
		assert.Contains(t, w.Body.String(), `"ok":true`)
	})

	t.Run("negative missing reason fails binding", func(t *testing.T) {
		svc := &fakeAuthorizationService{
			submitReasonFn: func(ctx context.Context, h *tenant.Handle, id, reason string) (authorization.AuthorizationResponse, error) {
				t.Fatal("service must not be called")
				return authorization.AuthorizationResponse{}, nil
			},
		}
		h := authorization.NewHandler(svc, &fakeRegistry{handle: handle})

		c, w := newHandlerContext(t, handle)
		c.Params = gin.Params{{Key: "id", Value: "auth-1"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/authorizations/auth-1/reason", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.SubmitReason(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})
}

func TestHandlerApprove(t *testing.T) {
	handle, _ := tenanttest.NewHandle(t, "c-1")

	t.Run("success forwards subtype and resolver", func(t *testing.T) {
		var gotResolver string
		var gotSubtype *string
		svc := &fakeAuthorizationService{
			approveFn: func(ctx context.Context, h *tenant.Handle, id, resolverID string, overtimeSubtype *string) (authorization.AuthorizationResponse, error) {
				gotResolver, gotSubtype = resolverID, overtimeSubtype
				return authorization.AuthorizationResponse{ID: id, Status: authorization.StatusApproved}, nil
			},
		}
		h := authorization.NewHandler(svc, &fakeRegistry{handle: handle})

		c, w := newHandlerContext(t, handle)
		c.Params = gin.Params{{Key: "id", Value: "auth-2"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/authorizations/auth-2/approve", strings.NewReader(`{"overtime_subtype":"paid"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "emp-9", gotResolver)
		if assert.NotNil(t, gotSubtype) {
			assert.Equal(t, "paid", *gotSubtype)
		}
	})

	t.Run("negative unknown subtype fails binding", func(t *testing.T) {
		svc := &fakeAuthorizationService{
			approveFn: func(ctx context.Context, h *tenant.Handle, id, resolverID string, overtimeSubtype *string) (authorization.AuthorizationResponse, error) {
				t.Fatal("service must not be called")
				return authorization.AuthorizationResponse{}, nil
			},
		}
		h := authorization.NewHandler(svc, &fakeRegistry{handle: handle})

		c, w := newHandlerContext(t, handle)
		c.Params = gin.Params{{Key: "id", Value: "auth-2"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/authorizations/auth-2/approve", strings.NewReader(`{"overtime_subtype":"weekend"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Approve(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative service error maps to envelope", func(t *testing.T) {
		svc := &fakeAuthorizationService{
			approveFn: func(ctx context.Context, h *tenant.Handle, id, resolverID string, overtimeSubtype *string) (authorization.AuthorizationResponse, error) {
				return authorization.AuthorizationResponse{}, authorizationerrors.ErrOvertimeSubtypeRequired
			},
		}
		h := authorization.NewHandler(svc, &fakeRegistry{handle: handle})

		c, w := newHandlerContext(t, handle)
		c.Params = gin.Params{{Key: "id", Value: "auth-2"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/authorizations/auth-2/approve", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Approve(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_INPUT")
	})
}

func TestHandlerListPending(t *testing.T) {
	handle, _ := tenanttest.NewHandle(t, "c-1")

	t.Run("success passes branch filter", func(t *testing.T) {
		svc := &fakeAuthorizationService{
			listPendingFn: func(ctx context.Context, h *tenant.Handle, branchID string) ([]authorization.AuthorizationResponse, error) {
				assert.Equal(t, "br-1", branchID)
				return []authorization.AuthorizationResponse{{ID: "a-1"}, {ID: "a-2"}}, nil
			},
		}
		h := authorization.NewHandler(svc, &fakeRegistry{handle: handle})

		c, w := newHandlerContext(t, handle)
		c.Request = httptest.NewRequest(http.MethodGet, "/authorizations?branch_id=br-1", nil)

		h.ListPending(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"a-2"`)
	})

	t.Run("negative unknown tenant resolves to 404", func(t *testing.T) {
		svc := &fakeAuthorizationService{
			listPendingFn: func(ctx context.Context, h *tenant.Handle, branchID string) ([]authorization.AuthorizationResponse, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}
		h := authorization.NewHandler(svc, &fakeRegistry{handle: handle})

		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("company_id", "c-unknown")
		c.Request = httptest.NewRequest(http.MethodGet, "/authorizations", nil)

		h.ListPending(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
	})
}
