package server

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/mazewave/internal/config"
)

// InvalidRequestLimiter locks out client IPs that keep sending requests
// the server refuses. Each lockout doubles the previous one up to a cap.
type InvalidRequestLimiter struct {
	mu                sync.Mutex
	clients           map[string]*invalidInfo
	maxInvalid        int
	lockoutSeconds    int
	maxLockoutSeconds int
	cleanupInterval   time.Duration
	stopCleanup       chan struct{}
	stopOnce          sync.Once
}

type invalidInfo struct {
	invalid      int
	lockedUntil  time.Time
	lockoutCount int
}

// NewInvalidRequestLimiter creates a limiter and starts its cleanup loop.
func NewInvalidRequestLimiter(cfg config.RateLimitConfig) *InvalidRequestLimiter {
	rl := &InvalidRequestLimiter{
		clients:           make(map[string]*invalidInfo),
		maxInvalid:        cfg.MaxInvalid,
		lockoutSeconds:    cfg.LockoutSeconds,
		maxLockoutSeconds: cfg.MaxLockoutSeconds,
		cleanupInterval:   5 * time.Minute,
		stopCleanup:       make(chan struct{}),
	}

	if rl.maxInvalid <= 0 {
		rl.maxInvalid = 5
	}
	if rl.lockoutSeconds <= 0 {
		rl.lockoutSeconds = 30
	}
	if rl.maxLockoutSeconds < rl.lockoutSeconds {
		rl.maxLockoutSeconds = rl.lockoutSeconds
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rl *InvalidRequestLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// IsLocked reports whether ip is locked out and for how much longer.
func (rl *InvalidRequestLimiter) IsLocked(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, ok := rl.clients[ip]
	if !ok {
		return false, 0
	}
	if remaining := time.Until(info.lockedUntil); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// RecordInvalid counts a refused request. It returns true with the lockout
// duration when this request triggers (or falls inside) a lockout.
func (rl *InvalidRequestLimiter) RecordInvalid(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, ok := rl.clients[ip]
	if !ok {
		info = &invalidInfo{}
		rl.clients[ip] = info
	}

	if remaining := time.Until(info.lockedUntil); remaining > 0 {
		return true, remaining
	}

	info.invalid++
	if info.invalid < rl.maxInvalid {
		return false, 0
	}

	info.lockoutCount++
	lockout := rl.lockoutDuration(info.lockoutCount)
	info.lockedUntil = time.Now().Add(lockout)
	info.invalid = 0
	return true, lockout
}

// lockoutDuration doubles the base lockout for every previous lockout
func (rl *InvalidRequestLimiter) lockoutDuration(count int) time.Duration {
	d := time.Duration(rl.lockoutSeconds) * time.Second
	ceiling := time.Duration(rl.maxLockoutSeconds) * time.Second
	for i := 1; i < count; i++ {
		if d >= ceiling/2 {
			return ceiling
		}
		d *= 2
	}
	return min(d, ceiling)
}

// RecordValid clears the invalid count for ip. Past lockouts still count
// toward the backoff until the entry is cleaned up.
func (rl *InvalidRequestLimiter) RecordValid(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if info, ok := rl.clients[ip]; ok {
		info.invalid = 0
	}
}

// InvalidCount returns the refused requests counted toward the next lockout.
func (rl *InvalidRequestLimiter) InvalidCount(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if info, ok := rl.clients[ip]; ok {
		return info.invalid
	}
	return 0
}

func (rl *InvalidRequestLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			rl.cleanup(time.Now())
		}
	}
}

// cleanup forgets clients that have been unlocked for ten minutes and have
// nothing counted toward a new lockout.
func (rl *InvalidRequestLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-10 * time.Minute)
	for ip, info := range rl.clients {
		if info.lockedUntil.Before(cutoff) && info.invalid == 0 {
			delete(rl.clients, ip)
		}
	}
}
