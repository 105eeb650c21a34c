package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newAPIKeyRouter(key string) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), APIKeyAuth(key))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestAPIKeyAuth(t *testing.T) {
	const key = "0123456789abcdef0123456789abcdef"

	t.Run("accepts matching header key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(APIKeyHeader, key)
		w := httptest.NewRecorder()
		newAPIKeyRouter(key).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("accepts bearer token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+key)
		w := httptest.NewRecorder()
		newAPIKeyRouter(key).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects missing key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		newAPIKeyRouter(key).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(APIKeyHeader, "wrong")
		w := httptest.NewRecorder()
		newAPIKeyRouter(key).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("empty configured key disables auth", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		newAPIKeyRouter("").ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
