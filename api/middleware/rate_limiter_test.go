package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per client")
}

func TestRateLimiterExpiresOldRequests(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
}
