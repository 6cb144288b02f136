package wfc

import (
	"fmt"
	"math/rand"
	"time"
)

// GeneratorConfig contains parameters for wave generation
type GeneratorConfig struct {
	Width       int   // Grid width in cells
	Height      int   // Grid height in cells
	Seed        int64 // Base seed (0 = derive from the clock)
	MaxAttempts int   // Fresh waves to try before giving up
}

// DefaultGeneratorConfig returns reasonable defaults for a grid of the given size
func DefaultGeneratorConfig(width, height int, seed int64) *GeneratorConfig {
	return &GeneratorConfig{
		Width:       width,
		Height:      height,
		Seed:        seed,
		MaxAttempts: 25,
	}
}

// Result is the output of a successful generation
type Result[T Tile[T]] struct {
	Wave     *Wave[T]
	Seed     int64 // Seed of the attempt that succeeded
	Attempts int   // Attempts used, including the successful one
}

// Generator runs collapse attempts until one succeeds. A failed wave is never
// retried in place: each attempt builds a new wave with its own random source.
type Generator[T Tile[T]] struct {
	config   *GeneratorConfig
	rules    *RuleSet[T]
	observer func(attempt int, step Step[T])
	onFail   func(attempt int, seed int64, err error)
}

// NewGenerator creates a new generator for the given rules
func NewGenerator[T Tile[T]](config *GeneratorConfig, rules *RuleSet[T]) *Generator[T] {
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if rules == nil {
		rules = NewRuleSet[T]()
	}

	return &Generator[T]{
		config: config,
		rules:  rules,
	}
}

// Config returns the generator configuration
func (g *Generator[T]) Config() *GeneratorConfig {
	return g.config
}

// Observe registers a callback forwarded to every attempt's wave
func (g *Generator[T]) Observe(fn func(attempt int, step Step[T])) {
	g.observer = fn
}

// OnFailure registers a callback invoked after each failed attempt
func (g *Generator[T]) OnFailure(fn func(attempt int, seed int64, err error)) {
	g.onFail = fn
}

// AttemptSeed returns the seed used for the given 0-indexed attempt
func (g *Generator[T]) AttemptSeed(attempt int) int64 {
	return g.config.Seed + int64(attempt*1000)
}

// Generate collapses fresh waves until one succeeds or attempts run out
func (g *Generator[T]) Generate() (*Result[T], error) {
	var lastErr error

	for attempt := 0; attempt < g.config.MaxAttempts; attempt++ {
		seed := g.AttemptSeed(attempt)

		// Each attempt gets its own copy so rule edits between attempts
		// never leak into a running wave.
		wave, err := New(g.config.Width, g.config.Height, g.rules.Clone())
		if err != nil {
			return nil, err
		}

		if g.observer != nil {
			n := attempt + 1
			wave.Observe(func(s Step[T]) { g.observer(n, s) })
		}

		if err := wave.Collapse(rand.New(rand.NewSource(seed))); err != nil {
			lastErr = err
			if g.onFail != nil {
				g.onFail(attempt+1, seed, err)
			}
			continue
		}

		return &Result[T]{Wave: wave, Seed: seed, Attempts: attempt + 1}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrNoSolution, g.config.MaxAttempts, lastErr)
	}
	return nil, ErrNoSolution
}
