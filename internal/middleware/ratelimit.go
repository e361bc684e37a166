package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ConnectLimiter caps websocket connection attempts per key (client IP)
// within a sliding window, so a reconnect loop cannot churn a room.
type ConnectLimiter struct {
	mu       sync.Mutex
	attempts map[string]*window
	limit    int
	interval time.Duration
	now      func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewConnectLimiter(limit int, interval time.Duration) *ConnectLimiter {
	return NewConnectLimiterWithNow(limit, interval, time.Now)
}

func NewConnectLimiterWithNow(limit int, interval time.Duration, now func() time.Time) *ConnectLimiter {
	cl := &ConnectLimiter{
		attempts: make(map[string]*window),
		limit:    limit,
		interval: interval,
		now:      now,
	}
	go cl.cleanup()
	return cl
}

func (cl *ConnectLimiter) cleanup() {
	if cl.interval <= 0 {
		return
	}

	ticker := time.NewTicker(cl.interval)
	defer ticker.Stop()

	for range ticker.C {
		cl.mu.Lock()
		now := cl.now()
		for key, w := range cl.attempts {
			if now.After(w.resetAt) {
				delete(cl.attempts, key)
			}
		}
		cl.mu.Unlock()
	}
}

func (cl *ConnectLimiter) Allow(key string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	w, exists := cl.attempts[key]
	if !exists || now.After(w.resetAt) {
		cl.attempts[key] = &window{count: 1, resetAt: now.Add(cl.interval)}
		return true
	}

	if w.count >= cl.limit {
		return false
	}

	w.count++
	return true
}

// LimitConnects rejects connection attempts over the per-IP budget before
// the websocket upgrade happens.
func LimitConnects(cl *ConnectLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cl.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many connection attempts"})
			c.Abort()
			return
		}
		c.Next()
	}
}
