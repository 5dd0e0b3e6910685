package exchange_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-workforce/internal/exchange"
	exchangeerrors "go-workforce/internal/exchange/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeExchangeService struct {
	listTargetsFn func(ctx context.Context, actor exchange.Actor, shiftID string) ([]exchange.EligibleTarget, error)
	proposeFn     func(ctx context.Context, actor exchange.Actor, in exchange.ProposeRequest) (exchange.ExchangeResponse, error)
	respondFn     func(ctx context.Context, actor exchange.Actor, id string, in exchange.EmployeeRespondRequest) (exchange.ExchangeResponse, error)
	approveFn     func(ctx context.Context, actor exchange.Actor, id string) (exchange.ExchangeResponse, error)
	rejectFn      func(ctx context.Context, actor exchange.Actor, id, reason string) (exchange.ExchangeResponse, error)
}

func (f *fakeExchangeService) ListEligibleTargets(ctx context.Context, actor exchange.Actor, shiftID string) ([]exchange.EligibleTarget, error) {
	return f.listTargetsFn(ctx, actor, shiftID)
}

func (f *fakeExchangeService) Propose(ctx context.Context, actor exchange.Actor, in exchange.ProposeRequest) (exchange.ExchangeResponse, error) {
	return f.proposeFn(ctx, actor, in)
}

func (f *fakeExchangeService) RespondAsEmployee(ctx context.Context, actor exchange.Actor, id string, in exchange.EmployeeRespondRequest) (exchange.ExchangeResponse, error) {
	return f.respondFn(ctx, actor, id, in)
}

func (f *fakeExchangeService) Approve(ctx context.Context, actor exchange.Actor, id string) (exchange.ExchangeResponse, error) {
	return f.approveFn(ctx, actor, id)
}

func (f *fakeExchangeService) RejectByApprover(ctx context.Context, actor exchange.Actor, id, reason string) (exchange.ExchangeResponse, error) {
	return f.rejectFn(ctx, actor, id, reason)
}

func (f *fakeExchangeService) GetByID(ctx context.Context, actor exchange.Actor, id string) (exchange.ExchangeResponse, error) {
	return exchange.ExchangeResponse{}, nil
}

func (f *fakeExchangeService) ListMine(ctx context.Context, actor exchange.Actor) ([]exchange.ExchangeResponse, error) {
	return nil, nil
}

func (f *fakeExchangeService) ListApprovalQueue(ctx context.Context, actor exchange.Actor) ([]exchange.ExchangeResponse, error) {
	return nil, nil
}

func newExchangeContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", "c-a")
	c.Set("employee_id", "emp-1")
	c.Set("user_id_validated", "u-1")
	c.Set("role", "EMPLOYEE")
	return c, w
}

func TestHandlerPropose(t *testing.T) {
	const (
		shiftA = "11111111-1111-1111-1111-111111111111"
		shiftB = "22222222-2222-2222-2222-222222222222"
	)

	t.Run("success builds the actor from context", func(t *testing.T) {
		var gotActor exchange.Actor
		var gotReq exchange.ProposeRequest
		svc := &fakeExchangeService{
			proposeFn: func(ctx context.Context, actor exchange.Actor, in exchange.ProposeRequest) (exchange.ExchangeResponse, error) {
				gotActor, gotReq = actor, in
				return exchange.ExchangeResponse{ID: "req-1", Status: exchange.StatusPending}, nil
			},
		}
		h := exchange.NewHandler(svc)

		c, w := newExchangeContext(t)
		body := `{"shift_id":"` + shiftA + `","target_company_id":"c-b","target_shift_id":"` + shiftB + `"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/exchanges", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Propose(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, exchange.Actor{CompanyID: "c-a", EmployeeID: "emp-1", UserKey: "u-1", Role: "EMPLOYEE"}, gotActor)
		assert.Equal(t, shiftA, gotReq.ShiftID)
		assert.Equal(t, "c-b", gotReq.TargetCompanyID)
		assert.Contains(t, w.Body.String(), `"ok":true`)
	})

	t.Run("negative malformed target shift id", func(t *testing.T) {
		svc := &fakeExchangeService{
			proposeFn: func(ctx context.Context, actor exchange.Actor, in exchange.ProposeRequest) (exchange.ExchangeResponse, error) {
				t.Fatal("service must not be called")
				return exchange.ExchangeResponse{}, nil
			},
		}
		h := exchange.NewHandler(svc)

		c, w := newExchangeContext(t)
		body := `{"shift_id":"` + shiftA + `","target_company_id":"c-b","target_shift_id":"not-a-uuid"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/exchanges", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Propose(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Target Shift Id is invalid")
	})

	t.Run("negative missing target company", func(t *testing.T) {
		svc := &fakeExchangeService{
			proposeFn: func(ctx context.Context, actor exchange.Actor, in exchange.ProposeRequest) (exchange.ExchangeResponse, error) {
				t.Fatal("service must not be called")
				return exchange.ExchangeResponse{}, nil
			},
		}
		h := exchange.NewHandler(svc)

		c, w := newExchangeContext(t)
		body := `{"shift_id":"` + shiftA + `","target_shift_id":"` + shiftB + `"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/exchanges", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Propose(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Target Company Id is required")
	})
}

func TestHandlerRespond(t *testing.T) {
	t.Run("success forwards acceptance", func(t *testing.T) {
		var gotID string
		var gotIn exchange.EmployeeRespondRequest
		svc := &fakeExchangeService{
			respondFn: func(ctx context.Context, actor exchange.Actor, id string, in exchange.EmployeeRespondRequest) (exchange.ExchangeResponse, error) {
				gotID, gotIn = id, in
				return exchange.ExchangeResponse{ID: id, ApprovalStage: exchange.StageAwaitingHR}, nil
			},
		}
		h := exchange.NewHandler(svc)

		c, w := newExchangeContext(t)
		c.Params = gin.Params{{Key: "id", Value: "req-7"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/exchanges/req-7/respond", strings.NewReader(`{"accept":true}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Respond(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "req-7", gotID)
		assert.True(t, gotIn.Accept)
	})

	t.Run("negative stale stage maps to conflict", func(t *testing.T) {
		svc := &fakeExchangeService{
			respondFn: func(ctx context.Context, actor exchange.Actor, id string, in exchange.EmployeeRespondRequest) (exchange.ExchangeResponse, error) {
				return exchange.ExchangeResponse{}, exchangeerrors.ErrStaleStage
			},
		}
		h := exchange.NewHandler(svc)

		c, w := newExchangeContext(t)
		c.Params = gin.Params{{Key: "id", Value: "req-7"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/exchanges/req-7/respond", strings.NewReader(`{"accept":true}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Respond(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "CONFLICT")
	})
}

func TestHandlerReject(t *testing.T) {
	t.Run("success forwards the reason", func(t *testing.T) {
		var gotReason string
		svc := &fakeExchangeService{
			rejectFn: func(ctx context.Context, actor exchange.Actor, id, reason string) (exchange.ExchangeResponse, error) {
				gotReason = reason
				return exchange.ExchangeResponse{ID: id, Status: exchange.StatusRejected}, nil
			},
		}
		h := exchange.NewHandler(svc)

		c, w := newExchangeContext(t)
		c.Params = gin.Params{{Key: "id", Value: "req-9"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/exchanges/req-9/reject", strings.NewReader(`{"reason":"coverage gap"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Reject(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "coverage gap", gotReason)
	})

	t.Run("negative missing reason fails binding", func(t *testing.T) {
		svc := &fakeExchangeService{
			rejectFn: func(ctx context.Context, actor exchange.Actor, id, reason string) (exchange.ExchangeResponse, error) {
				t.Fatal("service must not be called")
				return exchange.ExchangeResponse{}, nil
			},
		}
		h := exchange.NewHandler(svc)

		c, w := newExchangeContext(t)
		c.Params = gin.Params{{Key: "id", Value: "req-9"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/exchanges/req-9/reject", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Reject(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Reason is required")
	})
}

func TestHandlerListEligibleTargets(t *testing.T) {
	svc := &fakeExchangeService{
		listTargetsFn: func(ctx context.Context, actor exchange.Actor, shiftID string) ([]exchange.EligibleTarget, error) {
			assert.Equal(t, "shift-3", shiftID)
			return []exchange.EligibleTarget{{ShiftID: "shift-8", CompanyID: "c-b", CrossTenant: true}}, nil
		},
	}
	h := exchange.NewHandler(svc)

	c, w := newExchangeContext(t)
	c.Params = gin.Params{{Key: "shift_id", Value: "shift-3"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/shifts/shift-3/exchange-targets", nil)

	h.ListEligibleTargets(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cross_tenant":true`)
}
