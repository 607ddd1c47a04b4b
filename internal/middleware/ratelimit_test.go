package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(rl.RateLimit())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func doRequest(router *gin.Engine, remoteAddr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_DeniesAfterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	router := rateLimitedRouter(rl)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1:1234"))
}

func TestRateLimit_TracksClientsIndependently(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	router := rateLimitedRouter(rl)

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1:1234"))

	// A different client still has its own budget.
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.2:1234"))
}

func TestRateLimiter_CleanupEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	rl.lifetime = 10 * time.Millisecond

	rl.allow("10.0.0.1")
	time.Sleep(20 * time.Millisecond)
	rl.cleanup()

	rl.Lock()
	defer rl.Unlock()
	assert.Empty(t, rl.clients)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	_ = rl.RateLimit()

	// Stopping twice must not panic; the cleanup goroutine exits once.
	rl.Stop()
	rl.Stop()
}
