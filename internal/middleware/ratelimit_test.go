package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	h := RateLimit(0.5, 2)(okHandler())

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/token", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "too many requests")
}

func TestRateLimit_PerClientIP(t *testing.T) {
	h := RateLimit(0.5, 1)(okHandler())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		req := httptest.NewRequest(http.MethodGet, "/token", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "first request from %s", addr)
	}
}

func TestIPRateLimiter_SweepsIdleVisitors(t *testing.T) {
	rl := newIPRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rl.reserve("10.0.0.1", now)
	rl.reserve("10.0.0.2", now.Add(visitorIdleTTL+time.Second))
	rl.reserve("10.0.0.3", now.Add(2*visitorIdleTTL+2*time.Second))

	_, stale := rl.visitors["10.0.0.1"]
	assert.False(t, stale, "idle visitor should have been swept")
	assert.Contains(t, rl.visitors, "10.0.0.3")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.4:8080"
	assert.Equal(t, "192.168.1.4", clientIP(req))

	req.RemoteAddr = "192.168.1.4"
	assert.Equal(t, "192.168.1.4", clientIP(req))
}
