package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	counts := NewDomainGroup("inventory", "/inventory")
	counts.GET("/counts/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	r.Register(counts)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/inventory/counts/42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/inventory/counts/42").Code)
}

func TestRouterUse_AppliesToAPIGroupOnly(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	})
	r.Register(NewDomainGroup("inventory", "/inventory").GET("/counts", func(c *gin.Context) { c.Status(http.StatusOK) }))
	r.Setup()

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/inventory/counts").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }

	g := NewDomainGroup("inventory", "/inventory")
	g.GET("/counts", ok).
		POST("/counts", ok).
		PUT("/counts/:id/items", ok).
		DELETE("/count-templates/:id/items/:item_id", ok).
		Handle(http.MethodPatch, "/counts/:id", ok)
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/inventory/counts"},
		{http.MethodPost, "/api/v1/inventory/counts"},
		{http.MethodPut, "/api/v1/inventory/counts/1/items"},
		{http.MethodDelete, "/api/v1/inventory/count-templates/1/items/2"},
		{http.MethodPatch, "/api/v1/inventory/counts/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.method, w.Body.String())
		})
	}
}

func TestDomainGroup_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()

	var trail []string
	g := NewDomainGroup("inventory", "/inventory").Use(func(c *gin.Context) {
		trail = append(trail, "inventory")
	})
	sub := g.Group("approval", "/approvals").Use(func(c *gin.Context) {
		trail = append(trail, "approval")
	})
	sub.POST("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, "inventory", g.Name())
	assert.Equal(t, "/inventory", g.Prefix())
	assert.Equal(t, "/approvals", sub.Prefix())

	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodPost, "/api/v1/inventory/approvals/1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"inventory", "approval"}, trail)
}
