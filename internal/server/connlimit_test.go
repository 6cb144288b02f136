package server

import (
	"net/http"
	"sync"
	"testing"

	"github.com/lawnchairsociety/mazewave/internal/config"
)

func TestConnLimiter_Limits(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ConnectionsConfig
		ips     []string
		allowed []bool
	}{
		{
			name:    "per ip",
			cfg:     config.ConnectionsConfig{MaxPerIP: 2, MaxTotal: 100},
			ips:     []string{"10.0.0.1", "10.0.0.1", "10.0.0.1", "10.0.0.2"},
			allowed: []bool{true, true, false, true},
		},
		{
			name:    "total",
			cfg:     config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 3},
			ips:     []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"},
			allowed: []bool{true, true, true, false},
		},
		{
			name:    "unlimited",
			cfg:     config.ConnectionsConfig{},
			ips:     []string{"10.0.0.1", "10.0.0.1", "10.0.0.1", "10.0.0.1"},
			allowed: []bool{true, true, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewConnLimiter(tt.cfg)
			for i, ip := range tt.ips {
				if got := limiter.TryAcquire(ip); got != tt.allowed[i] {
					t.Errorf("connection %d from %s: TryAcquire() = %v, want %v", i+1, ip, got, tt.allowed[i])
				}
			}
		})
	}
}

func TestConnLimiter_ReleaseFreesSlot(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 1, MaxTotal: 1})

	if !limiter.TryAcquire("10.0.0.1") {
		t.Fatal("first connection should be allowed")
	}
	if limiter.TryAcquire("10.0.0.2") {
		t.Fatal("second connection should hit the total limit")
	}

	limiter.Release("10.0.0.1")
	if !limiter.TryAcquire("10.0.0.2") {
		t.Error("connection should be allowed after release")
	}

	// Releasing an IP with no slots must not go negative
	limiter.Release("10.0.0.9")
	limiter.Release("10.0.0.9")
	if total, _ := limiter.Stats(); total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestConnLimiter_UnmatchedReleaseKeepsTotalCap(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 0, MaxTotal: 2})

	if !limiter.TryAcquire("10.0.0.1") {
		t.Fatal("first connection should be allowed")
	}
	limiter.Release("10.0.0.8")
	if total, _ := limiter.Stats(); total != 1 {
		t.Fatalf("total = %d after unmatched release, want 1", total)
	}

	if !limiter.TryAcquire("10.0.0.2") {
		t.Fatal("second connection should be allowed")
	}
	if limiter.TryAcquire("10.0.0.2") {
		t.Error("third connection should hit the total limit of 2")
	}
}

func TestConnLimiter_Stats(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 100})

	limiter.TryAcquire("10.0.0.1")
	limiter.TryAcquire("10.0.0.1")
	limiter.TryAcquire("10.0.0.2")

	total, ips := limiter.Stats()
	if total != 3 || ips != 2 {
		t.Errorf("Stats() = %d, %d; want 3, 2", total, ips)
	}
	if n := limiter.IPCount("10.0.0.1"); n != 2 {
		t.Errorf("IPCount(10.0.0.1) = %d, want 2", n)
	}
	if n := limiter.IPCount("10.0.0.3"); n != 0 {
		t.Errorf("IPCount(10.0.0.3) = %d, want 0", n)
	}

	limiter.Release("10.0.0.2")
	if _, ips := limiter.Stats(); ips != 1 {
		t.Errorf("released IP should be forgotten, got %d IPs", ips)
	}
}

func TestConnLimiter_Concurrent(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 0, MaxTotal: 50})

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.TryAcquire("10.0.0.1") {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 50 {
		t.Errorf("acquired %d slots, want exactly 50", acquired)
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"192.168.1.1:12345", "192.168.1.1"},
		{"[::1]:12345", "::1"},
		{"localhost:8080", "localhost"},
		{"192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		if got := extractIP(tt.input); got != tt.expected {
			t.Errorf("extractIP(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		expected   string
	}{
		{"forwarded single", "203.0.113.50", "", "10.0.0.1:12345", "203.0.113.50"},
		{"forwarded chain", "203.0.113.50, 70.41.3.18", "", "10.0.0.1:12345", "203.0.113.50"},
		{"real ip", "", "203.0.113.50", "10.0.0.1:12345", "203.0.113.50"},
		{"forwarded wins", "203.0.113.50", "198.51.100.25", "10.0.0.1:12345", "203.0.113.50"},
		{"blank forwarded", " , 70.41.3.18", "198.51.100.25", "10.0.0.1:12345", "198.51.100.25"},
		{"no headers", "", "", "192.168.1.100:54321", "192.168.1.100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{RemoteAddr: tt.remoteAddr, Header: make(http.Header)}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			if got := getRealIP(req); got != tt.expected {
				t.Errorf("getRealIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}
