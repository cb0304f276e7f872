package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window in-memory limiter keyed by bucket and
// caller. Windows reset wholesale on expiry; good enough for a single
// instance, swap the store for Redis when running more than one.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow reports whether one more request fits in the current window.
func (rl *RateLimiter) Allow(key string, limit int, per time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= per {
		rl.windows[key] = &window{start: now, count: 1}
		return true
	}
	if w.count >= limit {
		return false
	}
	w.count++
	return true
}

// Limit guards a route group with a named bucket. The caller key prefers
// the authenticated tenant and falls back to the client IP for public
// routes.
func (rl *RateLimiter) Limit(bucket string, limit int, per time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		caller := ctx.GetString("tenant_id")
		if caller == "" {
			caller = ctx.ClientIP()
		}
		if !rl.Allow(bucket+":"+caller, limit, per) {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		ctx.Next()
	}
}
