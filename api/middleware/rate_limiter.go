package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a sliding-window request counter per client IP.
type RateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	limit    int
	window   time.Duration
}

// NewRateLimiter allows limit requests per window and client. A limit <= 0 disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	if rl.limit <= 0 {
		return true // Limiting disabled
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	// Drop timestamps outside the window, reusing the slice
	recent := rl.requests[ip][:0]
	for _, t := range rl.requests[ip] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	// Check if request limit is exceeded
	if len(recent) >= rl.limit {
		rl.requests[ip] = recent
		return false
	}
	// Add current request timestamp
	rl.requests[ip] = append(recent, now)
	return true
}

// getIP prefers the socket peer address and falls back to gin's ClientIP.
func getIP(c *gin.Context) string {
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.ClientIP()
	}
	return ip
}

func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(getIP(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait."})
			return
		}
		c.Next()
	}
}
