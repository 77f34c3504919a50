package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})
	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.FailNow(t, "span not found", name)
	return nil
}

func attrOf(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracingWithConfig_InjectsRequestAndUser(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingWithConfig(DefaultTracingConfig()))
	router.Use(func(c *gin.Context) {
		c.Set(JWTUsernameKey, "ana")
		c.Next()
	})
	router.Use(TracingAttributeInjector())
	router.GET("/forecast/data", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/forecast/data", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	router.ServeHTTP(httptest.NewRecorder(), req)

	span := findSpan(t, sr, "GET /forecast/data")
	v, ok := attrOf(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-123", v.AsString())
	v, ok = attrOf(span, "user")
	require.True(t, ok)
	assert.Equal(t, "ana", v.AsString())
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		status   int
		wantCode codes.Code
		wantDesc string
	}{
		{http.StatusOK, codes.Unset, ""},
		{http.StatusUnauthorized, codes.Error, "Unauthorized"},
		{http.StatusTooManyRequests, codes.Error, "Too Many Requests"},
		{http.StatusBadRequest, codes.Error, "Client Error"},
		{http.StatusNotFound, codes.Error, "Not Found"},
		{http.StatusBadGateway, codes.Error, ""},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			sr := setupTestTracer(t)

			router := gin.New()
			router.Use(TracingWithConfig(DefaultTracingConfig()))
			router.Use(SpanErrorMarker())
			router.GET("/test", func(c *gin.Context) { c.Status(tt.status) })
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

			span := findSpan(t, sr, "GET /test")
			assert.Equal(t, tt.wantCode, span.Status().Code)
			if tt.wantCode == codes.Error {
				assert.Equal(t, tt.wantDesc, span.Status().Description)
			}
		})
	}
}

func TestGetRequestID_LongHeaderTruncated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	long := make([]byte, MaxRequestIDLength+10)
	for i := range long {
		long[i] = 'a'
	}
	c.Request.Header.Set(RequestIDHeader, string(long))

	assert.Len(t, getRequestID(c), MaxRequestIDLength)
}

func TestSpanErrorMarker_WithoutSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanErrorMarker())
	router.Use(TracingAttributeInjector())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
