package websocket

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	Enabled          bool
	MaxConnections   int
	ConnectionsPerIP int
	// MessagesPerWindow frames are allowed per client in every WindowSize.
	MessagesPerWindow int
	WindowSize        time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           true,
		MaxConnections:    10000,
		ConnectionsPerIP:  20,
		MessagesPerWindow: 30,
		WindowSize:        10 * time.Second,
	}
}

// newFrameLimiter allows burst frames at once and refills one every
// interval/burst.
func newFrameLimiter(burst int, interval time.Duration) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return rate.NewLimiter(rate.Every(interval/time.Duration(burst)), burst)
}

// connectionCounter counts open sessions per client IP.
type connectionCounter struct {
	mu    sync.Mutex
	perIP map[string]int
}

func newConnectionCounter() *connectionCounter {
	return &connectionCounter{perIP: make(map[string]int)}
}

func (c *connectionCounter) acquire(ip string, limit int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit > 0 && c.perIP[ip] >= limit {
		return false
	}
	c.perIP[ip]++
	return true
}

func (c *connectionCounter) release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.perIP[ip]--
	if c.perIP[ip] <= 0 {
		delete(c.perIP, ip)
	}
}
