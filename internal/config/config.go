// Package config loads the mazewave YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/mazewave/internal/database"
)

// Config is the top-level mazewave configuration.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Server     ServerConfig     `yaml:"server"`
	Database   database.Config  `yaml:"database"`
}

// GenerationConfig holds the defaults for a generate request.
type GenerationConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Seed 0 derives a seed from the current time.
	Seed int64 `yaml:"seed"`

	// MaxAttempts is how many fresh waves are tried before giving up.
	MaxAttempts int `yaml:"max_attempts"`

	// RulesFile replaces the built-in maze rules when set.
	RulesFile string `yaml:"rules_file"`
}

// ServerConfig holds websocket service settings.
type ServerConfig struct {
	Address string `yaml:"address"`

	WebSocketConfig   `yaml:",inline"`
	ConnectionsConfig `yaml:",inline"`

	// MaxCells bounds width*height of a single request.
	MaxCells int `yaml:"max_cells"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Throttle  ThrottleConfig  `yaml:"throttle"`
}

// ThrottleConfig bounds how fast one connection may send requests.
type ThrottleConfig struct {
	// MaxRequests per window. 0 disables the limit.
	MaxRequests int `yaml:"max_requests"`

	// WindowSeconds is the sliding window length in seconds.
	WindowSeconds int `yaml:"window_seconds"`

	// RepeatCooldownSeconds refuses an identical seeded request sent again
	// within this many seconds. 0 disables the check.
	RepeatCooldownSeconds int `yaml:"repeat_cooldown_seconds"`
}

// RateLimitConfig holds the lockout settings for clients that keep sending
// invalid requests.
type RateLimitConfig struct {
	// MaxInvalid is the number of invalid requests before lockout.
	MaxInvalid int `yaml:"max_invalid"`

	// LockoutSeconds is the initial lockout duration in seconds.
	LockoutSeconds int `yaml:"lockout_seconds"`

	// MaxLockoutSeconds caps the doubling lockout duration.
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum size of a request message in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Width:       40,
			Height:      20,
			Seed:        0,
			MaxAttempts: 25,
		},
		Server: ServerConfig{
			Address: ":8080",
			WebSocketConfig: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			ConnectionsConfig: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 100,
			},
			MaxCells: 10000,
			RateLimit: RateLimitConfig{
				MaxInvalid:        5,
				LockoutSeconds:    30,
				MaxLockoutSeconds: 300,
			},
			Throttle: ThrottleConfig{
				MaxRequests:   20,
				WindowSeconds: 10,
			},
		},
		Database: database.DefaultConfig("data/mazewave.db"),
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// Validate reports every setting that can't be used.
func (c *Config) Validate() error {
	var errs []error
	if c.Generation.Width <= 0 || c.Generation.Height <= 0 {
		errs = append(errs, fmt.Errorf("generation: width and height must be positive, got %dx%d",
			c.Generation.Width, c.Generation.Height))
	}
	if c.Generation.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("generation: max_attempts must be at least 1"))
	}
	if c.Server.MaxCells <= 0 {
		errs = append(errs, fmt.Errorf("server: max_cells must be positive"))
	}
	if c.Server.MaxMessageSize <= 0 {
		errs = append(errs, fmt.Errorf("server: max_message_size must be positive"))
	}
	if c.Server.Throttle.MaxRequests < 0 || c.Server.Throttle.RepeatCooldownSeconds < 0 {
		errs = append(errs, fmt.Errorf("server: throttle settings can't be negative"))
	}
	switch database.DialectType(c.Database.Driver) {
	case database.DialectSQLite, database.DialectPostgres:
	default:
		errs = append(errs, fmt.Errorf("database: unknown driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // Non-browser clients send no Origin header
	}

	// "http://localhost:3000" -> "localhost:3000"
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return strings.EqualFold(originHost, requestHost)
}
