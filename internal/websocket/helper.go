package websocket

import (
	"net"
	"net/http"
	"strings"
)

func (h *WebSocketHandler) authenticateConnection(r *http.Request) (int64, error) {
	if h.authenticator == nil {
		// Default authentication - extract from query param
		return QueryUserAuth(r)
	}

	return h.authenticator(r)
}

func (h *WebSocketHandler) getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// acquireConnection reserves a session slot for clientIP. The returned
// release func is a no-op when rate limiting is off.
func (h *WebSocketHandler) acquireConnection(clientIP string) (func(), bool) {
	if !h.RateLimit.Enabled {
		return func() {}, true
	}

	if !h.connections.acquire(clientIP, h.RateLimit.ConnectionsPerIP) {
		return nil, false
	}
	return func() { h.connections.release(clientIP) }, true
}

func (h *WebSocketHandler) atCapacity() bool {
	return h.RateLimit.MaxConnections > 0 && h.Hub.ClientCount() >= h.RateLimit.MaxConnections
}
