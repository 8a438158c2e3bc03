// Package middleware holds the gin middleware chain of the ledger API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracingService names the server spans when telemetry config leaves it empty
const DefaultTracingService = "ledger-api"

// Tracing starts a server span per request. A disabled config installs a pass-through.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	if serviceName == "" {
		serviceName = DefaultTracingService
	}
	return otelgin.Middleware(serviceName)
}

// SpanAttributes tags the request span with request, tenant and user ids.
// It must run after Authenticate so the tenant is known.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
			if id, ok := GetTenantID(c); ok {
				span.SetAttributes(attribute.String("tenant_id", id.String()))
			}
			if id, ok := GetUserID(c); ok {
				span.SetAttributes(attribute.String("user_id", id.String()))
			}
		}
		c.Next()
	}
}

// SpanErrorMarker marks the request span as failed on 4xx and 5xx responses
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
