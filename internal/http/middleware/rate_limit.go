package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"paysync-server/internal/utils"
)

// RateLimiter is a fixed window counter per client IP.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	items     map[string]*rateEntry
	lastSweep time.Time
}

type rateEntry struct {
	count int
	reset time.Time
}

func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: time.Minute,
		now:    time.Now,
		items:  make(map[string]*rateEntry),
	}
}

// Allow counts one hit for key and reports whether it is within the limit,
// plus the time the current window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Time) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.window {
		for k, e := range rl.items {
			if now.After(e.reset) {
				delete(rl.items, k)
			}
		}
		rl.lastSweep = now
	}

	entry, ok := rl.items[key]
	if !ok || now.After(entry.reset) {
		entry = &rateEntry{reset: now.Add(rl.window)}
		rl.items[key] = entry
	}
	entry.count++
	return entry.count <= rl.limit, entry.reset
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, reset := rl.Allow(c.ClientIP())
		if !allowed {
			retry := int(reset.Sub(rl.now()).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			utils.RespondError(c, utils.NewAppError(http.StatusTooManyRequests, "RATE_LIMIT", "too many requests", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
