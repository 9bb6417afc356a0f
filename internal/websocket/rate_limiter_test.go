package websocket

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameLimiter_ConsumesAndRefills(t *testing.T) {
	rl := newFrameLimiter(2, 100*time.Millisecond)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow())
}

func TestFrameLimiter_Defaults(t *testing.T) {
	rl := newFrameLimiter(0, 0)

	assert.Equal(t, 1, rl.Burst())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestConnectionCounter(t *testing.T) {
	c := newConnectionCounter()

	assert.True(t, c.acquire("10.0.0.1", 2))
	assert.True(t, c.acquire("10.0.0.1", 2))
	assert.False(t, c.acquire("10.0.0.1", 2))
	assert.True(t, c.acquire("10.0.0.2", 2))

	c.release("10.0.0.1")
	assert.True(t, c.acquire("10.0.0.1", 2))

	c.release("10.0.0.2")
	assert.NotContains(t, c.perIP, "10.0.0.2")
}

func TestGetClientIP(t *testing.T) {
	h := &WebSocketHandler{}

	r := httptest.NewRequest("GET", "/ws", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", h.getClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", h.getClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", h.getClientIP(r))
}
