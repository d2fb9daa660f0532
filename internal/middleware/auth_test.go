// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritrace/veritrace-backend/internal/utils"
)

func issueTestToken(t *testing.T, role string) string {
	t.Helper()
	utils.SetJWTSecret("middleware-test-secret")
	token, err := utils.GenerateJWT(uuid.New(), "user@example.com", role, 1)
	require.NoError(t, err)
	return token
}

func protectedRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handlers := append(mw, func(c *gin.Context) {
		role, _ := c.Get("user_role")
		c.JSON(http.StatusOK, gin.H{"role": role})
	})
	r.GET("/protected", handlers...)
	return r
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := protectedRouter(AuthRequired())

	t.Run("missing token", func(t *testing.T) {
		w := doRequest(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w := doRequest(r, "not.a.token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token passes claims", func(t *testing.T) {
		token := issueTestToken(t, "consumer")
		w := doRequest(r, token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "consumer")
	})
}

func TestAdminRequired(t *testing.T) {
	r := protectedRouter(AuthRequired(), AdminRequired())

	t.Run("non-admin forbidden", func(t *testing.T) {
		w := doRequest(r, issueTestToken(t, "manufacturer"))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		w := doRequest(r, issueTestToken(t, "admin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestManufacturerRequired(t *testing.T) {
	r := protectedRouter(AuthRequired(), ManufacturerRequired())

	t.Run("consumer forbidden", func(t *testing.T) {
		w := doRequest(r, issueTestToken(t, "consumer"))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin is not a manufacturer", func(t *testing.T) {
		w := doRequest(r, issueTestToken(t, "admin"))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("manufacturer allowed", func(t *testing.T) {
		w := doRequest(r, issueTestToken(t, "manufacturer"))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	r := protectedRouter(OptionalAuth())

	t.Run("anonymous passes through", func(t *testing.T) {
		w := doRequest(r, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad token passes through anonymously", func(t *testing.T) {
		w := doRequest(r, "garbage")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "null")
	})

	t.Run("valid token attaches claims", func(t *testing.T) {
		w := doRequest(r, issueTestToken(t, "consumer"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "consumer")
	})
}
