// Package middleware provides the gin middleware of the count API.
package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// MeterProvider receives the HTTP server metrics otelgin records. Nil
	// uses the global provider.
	MeterProvider metric.MeterProvider
	// SkipPaths are not traced.
	SkipPaths []string
}

// TracingWithConfig starts a server span per request, named after the
// matched route ("POST /api/v1/inventory/counts/:id/decision"), and records
// request duration and size metrics.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	opts := []otelgin.Option{
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			return !slices.Contains(cfg.SkipPaths, c.Request.URL.Path)
		}),
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, otelgin.WithMeterProvider(cfg.MeterProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanAttributes tags the active span with request, tenant and user IDs and
// marks it failed for error responses. Place it after the JWT middleware.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := c.GetString(RequestIDContextKey); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if tenantID := GetJWTTenantID(c); tenantID != "" {
			span.SetAttributes(attribute.String("tenant_id", tenantID))
		}
		if userID := GetJWTUserID(c); userID != "" {
			span.SetAttributes(attribute.String("user_id", userID))
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
			return
		}
		span.SetStatus(codes.Error, "Client Error")
	}
}
