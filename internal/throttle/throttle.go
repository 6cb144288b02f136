// Package throttle limits how fast a single client may submit generation
// requests.
package throttle

import (
	"fmt"
	"sync"
	"time"
)

// Config holds throttle configuration
type Config struct {
	MaxRequests    int           // Requests allowed per window (0 disables throttling)
	Window         time.Duration // Sliding window for MaxRequests
	RepeatCooldown time.Duration // Minimum gap between identical requests (0 disables)
}

// DefaultConfig returns the throttle defaults
func DefaultConfig() Config {
	return Config{
		MaxRequests: 20,
		Window:      10 * time.Second,
	}
}

// ConfigFromSeconds builds a Config from whole-second settings as they
// appear in YAML. Non-positive window values fall back to the defaults.
func ConfigFromSeconds(maxRequests, windowSeconds, repeatCooldownSeconds int) Config {
	cfg := DefaultConfig()
	cfg.MaxRequests = maxRequests
	if windowSeconds > 0 {
		cfg.Window = time.Duration(windowSeconds) * time.Second
	}
	if repeatCooldownSeconds > 0 {
		cfg.RepeatCooldown = time.Duration(repeatCooldownSeconds) * time.Second
	}
	return cfg
}

// Result is the outcome of a Check
type Result struct {
	Allowed bool
	Reason  string
	Wait    time.Duration // How long to wait before trying again
}

// Err returns the refusal as an error, or nil when the request is allowed
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s, retry in %s", r.Reason, r.Wait.Round(time.Second))
}

// Tracker throttles the requests of one client. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	config   Config
	now      func() time.Time
	recent   []time.Time          // Accepted request times inside the window
	lastSeen map[string]time.Time // request key -> last accepted time
}

// NewTracker creates a tracker with the given config
func NewTracker(config Config) *Tracker {
	return &Tracker{
		config:   config,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

// Check records a request when it is allowed. key identifies requests that
// would produce the same result; an empty key skips the repeat check.
func (t *Tracker) Check(key string) Result {
	if t.config.MaxRequests <= 0 && t.config.RepeatCooldown <= 0 {
		return Result{Allowed: true}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.cleanup(now)

	if key != "" && t.config.RepeatCooldown > 0 {
		if last, ok := t.lastSeen[key]; ok {
			return Result{
				Reason: "identical request sent too soon",
				Wait:   t.config.RepeatCooldown - now.Sub(last),
			}
		}
	}

	if t.config.MaxRequests > 0 && len(t.recent) >= t.config.MaxRequests {
		return Result{
			Reason: "sending requests too quickly",
			Wait:   t.recent[0].Add(t.config.Window).Sub(now),
		}
	}

	t.recent = append(t.recent, now)
	if key != "" && t.config.RepeatCooldown > 0 {
		t.lastSeen[key] = now
	}
	return Result{Allowed: true}
}

// cleanup drops request times outside the window and keys past their cooldown
func (t *Tracker) cleanup(now time.Time) {
	cutoff := now.Add(-t.config.Window)
	kept := t.recent[:0]
	for _, at := range t.recent {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	t.recent = kept

	repeatCutoff := now.Add(-t.config.RepeatCooldown)
	for key, at := range t.lastSeen {
		if !at.After(repeatCutoff) {
			delete(t.lastSeen, key)
		}
	}
}

// Reset clears all tracking data
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recent = nil
	t.lastSeen = make(map[string]time.Time)
}
