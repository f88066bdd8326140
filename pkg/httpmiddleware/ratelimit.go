package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rpstreef/screencloud-challenge/pkg/problem"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window. Zero disables limiting.
	Max    int
	Window time.Duration
	// KeyFunc extracts the client key. Defaults to the client IP.
	KeyFunc func(*http.Request) string
}

type window struct {
	prevCount float64
	currCount float64
	currStart time.Time
}

// RateLimiter enforces a per-key sliding window limit.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewRateLimiter returns a limiter for cfg.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	return &RateLimiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow records a request for key at now. It returns the remaining budget,
// the end of the current window and whether the request may proceed.
func (rl *RateLimiter) Allow(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	size := rl.cfg.Window
	w, found := rl.windows[key]
	if !found {
		w = &window{currStart: now.Truncate(size)}
		rl.windows[key] = w
	}
	if elapsed := now.Sub(w.currStart); elapsed >= size {
		w.prevCount = w.currCount
		if elapsed >= 2*size {
			w.prevCount = 0
		}
		w.currCount = 0
		w.currStart = now.Truncate(size)
	}

	overlap := 1 - now.Sub(w.currStart).Seconds()/size.Seconds()
	effective := w.prevCount*max(overlap, 0) + w.currCount
	resetAt = w.currStart.Add(size)

	if effective >= float64(rl.cfg.Max) {
		return 0, resetAt, false
	}
	w.currCount++
	return max(int(float64(rl.cfg.Max)-effective-1), 0), resetAt, true
}

// Sweep drops keys idle for two windows.
func (rl *RateLimiter) Sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.Sub(w.currStart) >= 2*rl.cfg.Window {
			delete(rl.windows, key)
		}
	}
}

// Run sweeps idle keys until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(2 * rl.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.Sweep(now)
		}
	}
}

// Middleware rejects requests over the limit with a 429 problem response.
// Allowed responses carry X-RateLimit-* headers.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if rl.cfg.Max <= 0 || rl.cfg.Window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := rl.now()
			remaining, resetAt, ok := rl.Allow(rl.cfg.KeyFunc(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retry := max(resetAt.Sub(now), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				problem.Write(w, r, problem.New(http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitWithCleanup returns a rate limiting middleware whose idle keys are
// swept in the background until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := NewRateLimiter(cfg)
	if cfg.Max > 0 && cfg.Window > 0 {
		go rl.Run(ctx)
	}
	return rl.Middleware()
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP or the remote
// host, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
