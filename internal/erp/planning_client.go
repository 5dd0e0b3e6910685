package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go-workforce/internal/shared/apperror"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type SlotState string

const (
	SlotStateDraft     SlotState = "draft"
	SlotStatePublished SlotState = "published"
)

var ErrResourceNotFound = apperror.New(
	apperror.CodeNotFound,
	"ERP resource not found for employee in target company",
	http.StatusNotFound,
)

// PlanningClient talks to the ERP planning module. Any transport or non-2xx
// failure surfaces as an EXTERNAL_DEPENDENCY error; callers treat those as
// retryable by a human, never automatically.
//
//go:generate mockgen -source=planning_client.go -destination=mock/planning_client_mock.go -package=mock
type PlanningClient interface {
	SetPlanningSlotState(ctx context.Context, erpCompanyID int, slotID string, state SlotState) error
	// ResolveResourceID maps an employee's cross-company user key to the
	// planning resource id the ERP uses inside erpCompanyID.
	ResolveResourceID(ctx context.Context, erpCompanyID int, userKey string) (string, error)
	SetPlanningSlotResource(ctx context.Context, erpCompanyID int, slotID, resourceID string) error
}

type httpPlanningClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPPlanningClient(baseURL, apiKey string, timeout time.Duration, logger ...*zap.Logger) PlanningClient {
	l := zap.L().Named("erp.planning_client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("erp.planning_client")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpPlanningClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: l,
	}
}

func (c *httpPlanningClient) SetPlanningSlotState(ctx context.Context, erpCompanyID int, slotID string, state SlotState) error {
	body := map[string]any{
		"company_id": erpCompanyID,
		"state":      string(state),
	}

	path := fmt.Sprintf("/api/planning/slots/%s/state", url.PathEscape(slotID))
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return err
	}

	c.logger.Debug("planning slot state set",
		zap.String("slot_id", slotID),
		zap.Int("erp_company_id", erpCompanyID),
		zap.String("state", string(state)),
	)
	return nil
}

func (c *httpPlanningClient) ResolveResourceID(ctx context.Context, erpCompanyID int, userKey string) (string, error) {
	path := "/api/planning/resources/resolve?company_id=" + strconv.Itoa(erpCompanyID) +
		"&user_key=" + url.QueryEscape(userKey)

	var out struct {
		ResourceID string `json:"resource_id"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	if out.ResourceID == "" {
		return "", ErrResourceNotFound
	}

	return out.ResourceID, nil
}

func (c *httpPlanningClient) SetPlanningSlotResource(ctx context.Context, erpCompanyID int, slotID, resourceID string) error {
	body := map[string]any{
		"company_id":  erpCompanyID,
		"resource_id": resourceID,
	}

	path := fmt.Sprintf("/api/planning/slots/%s/resource", url.PathEscape(slotID))
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *httpPlanningClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("erp request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return apperror.Wrap(err, apperror.CodeExternalDependency, "ERP planning call failed", http.StatusBadGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrResourceNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("erp request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return apperror.New(
			apperror.CodeExternalDependency,
			fmt.Sprintf("ERP planning call returned %d", resp.StatusCode),
			http.StatusBadGateway,
		)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperror.Wrap(err, apperror.CodeExternalDependency, "ERP planning response malformed", http.StatusBadGateway)
		}
	}

	return nil
}
