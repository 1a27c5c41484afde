package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Idle buckets are evicted after this long; eviction runs opportunistically
// once per gcEvery lookups rather than on a timer.
const (
	bucketTTL = 10 * time.Minute
	gcEvery   = 5000
)

// keyFunc maps a request to the identity that owns a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by the authenticated user when present and by
// client IP otherwise. The prefixes keep the two namespaces from colliding.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString(ContextUserID); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token-bucket limiter with one bucket per
// identity. It bounds abuse and upstream LLM spend for a single instance;
// a horizontally scaled deployment needs a shared limiter instead.
// Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with
// the given burst size. A burst below 1 is coerced to 1; rps of 0 blocks
// every request once the initial burst is spent.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
	}
}

// limiterFor returns the bucket for key, creating it on first sight.
// Eviction runs before the lookup so a stale bucket for this very key is
// replaced rather than refreshed.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= gcEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= bucketTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator flagged this request as
// a replay of already-completed work. Replays skip limiting entirely, since
// serving them costs a single read.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit, answering 429 with the standard error envelope
// and a Retry-After header when a bucket is empty.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		if rl.limiterFor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":    false,
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
