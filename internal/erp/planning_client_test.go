package erp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-workforce/internal/erp"
	"go-workforce/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
)

func TestResolveResourceID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/planning/resources/resolve", r.URL.Path)
			assert.Equal(t, "4", r.URL.Query().Get("company_id"))
			assert.Equal(t, "jdoe", r.URL.Query().Get("user_key"))
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]string{"resource_id": "res-77"})
		}))
		defer srv.Close()

		client := erp.NewHTTPPlanningClient(srv.URL, "secret", time.Second)
		id, err := client.ResolveResourceID(context.Background(), 4, "jdoe")
		assert.NoError(t, err)
		assert.Equal(t, "res-77", id)
	})

	t.Run("negative missing resource", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := erp.NewHTTPPlanningClient(srv.URL, "secret", time.Second)
		_, err := client.ResolveResourceID(context.Background(), 4, "ghost")
		assert.ErrorIs(t, err, erp.ErrResourceNotFound)
	})
}

func TestSetPlanningSlotState(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/planning/slots/slot-1/state", r.URL.Path)
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		client := erp.NewHTTPPlanningClient(srv.URL, "secret", time.Second)
		err := client.SetPlanningSlotState(context.Background(), 4, "slot-1", erp.SlotStateDraft)
		assert.NoError(t, err)
		assert.Equal(t, "draft", got["state"])
	})

	t.Run("negative upstream error maps to external dependency", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := erp.NewHTTPPlanningClient(srv.URL, "secret", time.Second)
		err := client.SetPlanningSlotState(context.Background(), 4, "slot-1", erp.SlotStatePublished)

		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, apperror.CodeExternalDependency, httpErr.Code)
		assert.Equal(t, http.StatusBadGateway, httpErr.Status)
	})
}
