package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/wallethub/ledger/internal/domain/ids"
)

func TestDefaultRateLimitConfig(t *testing.T) {
	config := DefaultRateLimitConfig()

	assert.Equal(t, 100, config.Limit)
	assert.Equal(t, time.Minute, config.Window)
	assert.NotNil(t, config.KeyFunc)
	assert.Nil(t, config.OnLimitReached)
}

func TestRateLimit_AllowsRequestsUnderLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  5,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i+1)
	}
}

func TestRateLimit_BlocksRequestsOverLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  3,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimit_Headers(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  10,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_RetryAfterHeader(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  1,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_DifferentKeys(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  2,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.Query("key")
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test?key=key1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/test?key=key1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/test?key=key2", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_OnLimitReachedCallback(t *testing.T) {
	called := false
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  1,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
		OnLimitReached: func(c *gin.Context) {
			called = true
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.False(t, called)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.True(t, called)
}

func TestRateLimit_NilConfig(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_ConcurrentRequests(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  50,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code == http.StatusOK {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, successCount)
}

func TestRateLimit_ResponseBody(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  1,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Contains(t, body, "TOO_MANY_REQUESTS")
	assert.Contains(t, body, "rate limit exceeded")
}

func TestRateLimiter_BucketReset(t *testing.T) {
	config := &RateLimitConfig{
		Limit:  2,
		Window: 50 * time.Millisecond,
		KeyFunc: func(c *gin.Context) string {
			return "test"
		},
	}
	limiter := newRateLimiter(config)

	allowed, remaining, _ := limiter.allow("test")
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, remaining, _ = limiter.allow("test")
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _, _ = limiter.allow("test")
	assert.False(t, allowed)

	time.Sleep(60 * time.Millisecond)

	allowed, remaining, _ = limiter.allow("test")
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
}

func TestWriteOperationRateLimit_KeysByAPIKeyID(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(AuthAPIKeyIDKey, ids.APIKeyID("caller-a"))
		c.Next()
	})
	router.Use(WriteOperationRateLimit())
	router.POST("/transfers", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 30; i++ {
		req := httptest.NewRequest(http.MethodPost, "/transfers", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/transfers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestWriteOperationRateLimit_FallsBackToIP(t *testing.T) {
	router := gin.New()
	router.Use(WriteOperationRateLimit())
	router.POST("/transfers", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/transfers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
