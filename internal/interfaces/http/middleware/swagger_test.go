package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerRequest(cfg config.SwaggerConfig, remoteAddr string) int {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.SwaggerConfig
		remote string
		want   int
	}{
		{"disabled", config.SwaggerConfig{}, "127.0.0.1:1234", http.StatusNotFound},
		{"open", config.SwaggerConfig{Enabled: true}, "203.0.113.9:1234", http.StatusOK},
		{"exact ip allowed", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}}, "127.0.0.1:1234", http.StatusOK},
		{"exact ip denied", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}}, "192.168.1.1:1234", http.StatusForbidden},
		{"cidr allowed", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "10.20.30.40:1234", http.StatusOK},
		{"ipv6 loopback", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"::1"}}, "[::1]:1234", http.StatusOK},
		{"invalid entries only", config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip"}}, "10.0.0.1:1234", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, swaggerRequest(tt.cfg, tt.remote))
		})
	}
}

func TestParseAllowList(t *testing.T) {
	prefixes := parseAllowList([]string{" 192.168.1.1 ", "10.1.2.3/8", "bogus", "fe80::/10"})
	assert.Len(t, prefixes, 3)
	assert.Equal(t, "10.0.0.0/8", prefixes[1].String())

	assert.True(t, ipAllowed("10.9.9.9", prefixes))
	assert.True(t, ipAllowed("::ffff:192.168.1.1", prefixes))
	assert.False(t, ipAllowed("172.16.0.1", prefixes))
	assert.False(t, ipAllowed("", prefixes))
}
