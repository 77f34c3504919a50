package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int) (*RateLimiter, *time.Time) {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(t.Context(), limit, time.Minute)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 3)
		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("a"), "request %d", i+1)
		}
		assert.False(t, limiter.Allow("a"))
		assert.Equal(t, 0, limiter.Remaining("a"))
	})

	t.Run("separate limits per key", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1)
		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"))
		assert.True(t, limiter.Allow("b"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter, now := newTestLimiter(t, 1)
		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"))

		*now = now.Add(time.Minute)
		assert.Equal(t, 1, limiter.Remaining("a"))
		assert.True(t, limiter.Allow("a"))
	})

	t.Run("sweep drops stale keys", func(t *testing.T) {
		limiter, now := newTestLimiter(t, 1)
		limiter.Allow("a")
		*now = now.Add(3 * time.Minute)
		limiter.sweep()
		assert.Empty(t, limiter.clients)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2)
	router := gin.New()
	router.Use(RateLimit(limiter))
	router.GET("/api/inventario/items", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/inventario/items", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusOK {
			assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		} else {
			assert.Contains(t, rec.Body.String(), "ERR_RATE_LIMITED")
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitByKey(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	router := gin.New()
	router.Use(RateLimitByKey(limiter, func(c *gin.Context) string { return c.GetHeader("X-Key") }))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Key", key)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusOK, send("b"))
}
