package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a per-IP sliding-window request limiter. Unlike the usual
// grow-forever map, the entry table is capacity-bounded: when full, expired
// entries are evicted first and new clients are admitted unthrottled rather
// than blocking the request path. A purge loop clears expired windows.
type RateLimiter struct {
	mu         sync.Mutex
	entries    map[string]*rateWindow
	limit      int
	window     time.Duration
	maxEntries int
}

type rateWindow struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration, maxEntries int) *RateLimiter {
	rl := &RateLimiter{
		entries:    make(map[string]*rateWindow),
		limit:      limit,
		window:     window,
		maxEntries: maxEntries,
	}
	go rl.purgeLoop()
	return rl
}

// Allow reports whether a request from key is within the limit.
func (rl *RateLimiter) Allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries[key]
	if !ok {
		if len(rl.entries) >= rl.maxEntries {
			rl.evictExpiredLocked(now)
		}
		if len(rl.entries) >= rl.maxEntries {
			// Table saturated with live windows; fail open.
			return true
		}
		entry = &rateWindow{}
		rl.entries[key] = entry
	}

	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(rl.window)
	}

	entry.count++
	return entry.count <= rl.limit
}

func (rl *RateLimiter) evictExpiredLocked(now time.Time) {
	for key, entry := range rl.entries {
		if now.After(entry.windowEnd) {
			delete(rl.entries, key)
		}
	}
}

func (rl *RateLimiter) purgeLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		rl.evictExpiredLocked(time.Now())
		rl.mu.Unlock()
	}
}

// Middleware rejects over-limit clients with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
