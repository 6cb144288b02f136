package server

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/lawnchairsociety/mazewave/internal/config"
)

// ConnLimiter tracks and limits connections per IP and total.
type ConnLimiter struct {
	mu         sync.Mutex
	ipCounts   map[string]int
	totalCount int
	maxPerIP   int
	maxTotal   int
}

// NewConnLimiter creates a new connection limiter with the given config.
func NewConnLimiter(cfg config.ConnectionsConfig) *ConnLimiter {
	return &ConnLimiter{
		ipCounts: make(map[string]int),
		maxPerIP: cfg.MaxPerIP,
		maxTotal: cfg.MaxTotal,
	}
}

// TryAcquire takes a connection slot for ip. It returns false when the
// per-IP or total limit is already reached.
func (c *ConnLimiter) TryAcquire(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxTotal > 0 && c.totalCount >= c.maxTotal {
		return false
	}
	if c.maxPerIP > 0 && c.ipCounts[ip] >= c.maxPerIP {
		return false
	}

	c.ipCounts[ip]++
	c.totalCount++
	return true
}

// Release releases a connection slot for the given IP.
func (c *ConnLimiter) Release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// An IP without a slot has nothing to give back
	if c.ipCounts[ip] == 0 {
		return
	}
	c.ipCounts[ip]--
	if c.ipCounts[ip] == 0 {
		delete(c.ipCounts, ip)
	}
	c.totalCount--
}

// Stats returns the number of open connections and distinct client IPs.
func (c *ConnLimiter) Stats() (total int, ips int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCount, len(c.ipCounts)
}

// IPCount returns the current connection count for a specific IP.
func (c *ConnLimiter) IPCount(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ipCounts[ip]
}

// extractIP extracts the IP address from a remote address string (ip:port format).
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// getRealIP returns the client IP, preferring the first X-Forwarded-For
// entry, then X-Real-IP, then the socket address.
func getRealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return extractIP(r.RemoteAddr)
}
