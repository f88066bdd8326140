package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

var limiterEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLimiter(cfg RateLimitConfig, now *time.Time) http.Handler {
	rl := NewRateLimiter(cfg)
	rl.now = func() time.Time { return *now }
	return rl.Middleware()(okHandler())
}

func serveFrom(h http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/orders/submit", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	now := limiterEpoch
	h := newTestLimiter(RateLimitConfig{Max: 5, Window: time.Minute}, &now)

	for i := range 5 {
		w := serveFrom(h, "192.168.1.1:12345")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, []string{"4", "3", "2", "1", "0"}[i], w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	now := limiterEpoch
	h := newTestLimiter(RateLimitConfig{Max: 2, Window: time.Minute}, &now)

	for range 2 {
		require.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:9999").Code)
	}

	w := serveFrom(h, "10.0.0.1:9999")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{
		"title": "Too Many Requests",
		"status": 429,
		"detail": "rate limit exceeded",
		"code": "RATE_LIMITED",
		"instance": "/api/orders/submit"
	}`, w.Body.String())
}

func TestRateLimit_WindowSlides(t *testing.T) {
	now := limiterEpoch
	h := newTestLimiter(RateLimitConfig{Max: 2, Window: time.Minute}, &now)

	for range 2 {
		require.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1").Code)
	}

	// Half way into the next window the previous one still weighs 1 request.
	now = limiterEpoch.Add(90 * time.Second)
	assert.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(h, "10.0.0.1:1").Code)

	now = limiterEpoch.Add(5 * time.Minute)
	assert.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1").Code)
}

func TestRateLimit_DifferentClients(t *testing.T) {
	now := limiterEpoch
	h := newTestLimiter(RateLimitConfig{Max: 1, Window: time.Minute}, &now)

	assert.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.2:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(h, "10.0.0.1:5678").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	now := limiterEpoch
	h := newTestLimiter(RateLimitConfig{Max: 0, Window: time.Minute}, &now)

	for range 10 {
		w := serveFrom(h, "10.0.0.1:1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	now := limiterEpoch
	h := newTestLimiter(RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("X-Client") },
	}, &now)

	serve := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, serve("a"))
	assert.Equal(t, http.StatusTooManyRequests, serve("a"))
	assert.Equal(t, http.StatusOK, serve("b"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	_, _, ok := rl.Allow("a", limiterEpoch)
	require.True(t, ok)

	rl.Sweep(limiterEpoch.Add(time.Minute))
	assert.Len(t, rl.windows, 1)

	rl.Sweep(limiterEpoch.Add(2 * time.Minute))
	assert.Empty(t, rl.windows)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, remote: "192.168.1.1:1", want: "203.0.113.50"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, remote: "192.168.1.1:1", want: "198.51.100.7"},
		{name: "remote addr", remote: "192.168.1.1:4444", want: "192.168.1.1"},
		{name: "remote without port", remote: "pipe", want: "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
