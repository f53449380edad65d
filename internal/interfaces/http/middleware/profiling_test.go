package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfilingLabels(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTTenantIDKey, "tenant-1")
		c.Next()
	}, ProfilingLabels())
	router.POST("/api/v1/inventory/counts/:id/decision", func(c *gin.Context) {
		route, _ := pprof.Label(c.Request.Context(), "route")
		method, _ := pprof.Label(c.Request.Context(), "method")
		tenant, _ := pprof.Label(c.Request.Context(), "tenant_id")
		c.String(http.StatusOK, route+"|"+method+"|"+tenant)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/inventory/counts/7/decision", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/inventory/counts/:id/decision|POST|tenant-1", w.Body.String())
}

func TestProfilingLabels_Unmatched(t *testing.T) {
	router := gin.New()
	router.Use(ProfilingLabels())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
