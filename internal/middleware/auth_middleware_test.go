package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_key":    "u-1",
		"company_id":  "c-1",
		"employee_id": "e-1",
		"role":        "MANAGER",
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	var got map[string]string
	router := gin.New()
	router.GET("/probe", AuthMiddleware(), ExtractUserID(), func(c *gin.Context) {
		got = map[string]string{
			"user_key":    c.GetString("user_id_validated"),
			"company_id":  c.GetString("company_id"),
			"employee_id": c.GetString("employee_id"),
			"role":        c.GetString("role"),
		}
		c.Status(http.StatusNoContent)
	})

	probe := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid token populates the caller identity", func(t *testing.T) {
		got = nil
		w := probe(signToken(t, "test-secret", validClaims()))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "u-1", got["user_key"])
		assert.Equal(t, "c-1", got["company_id"])
		assert.Equal(t, "e-1", got["employee_id"])
		assert.Equal(t, "MANAGER", got["role"])
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		w := probe("")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		w := probe(signToken(t, "test-secret", claims))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	})

	t.Run("wrong signature is rejected", func(t *testing.T) {
		w := probe(signToken(t, "other-secret", validClaims()))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("token without a company scope is rejected", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "company_id")
		w := probe(signToken(t, "test-secret", claims))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Company ID")
	})
}

type fakeEnforcer struct {
	allow bool
}

func (f *fakeEnforcer) Enforce(ctx context.Context, companyID, employeeID, resource, action string) (bool, error) {
	return f.allow, nil
}

func TestRBACAuthorize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(enforcer RBACService, withIdentity bool) *gin.Engine {
		router := gin.New()
		router.GET("/guarded", func(c *gin.Context) {
			if withIdentity {
				c.Set("employee_id", "e-1")
				c.Set("company_id", "c-1")
			}
		}, RBACAuthorize(enforcer, "authorization", "approve"), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return router
	}

	t.Run("allowed subject passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(&fakeEnforcer{allow: true}, true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("denied subject gets forbidden with the missing grant", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(&fakeEnforcer{allow: false}, true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "authorization:approve")
	})

	t.Run("missing identity is unauthorized", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(&fakeEnforcer{allow: true}, false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
