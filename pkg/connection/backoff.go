package connection

import (
	"math"
	"math/rand"
	"time"
)

// Backoff defaults for reconnection delays.
const (
	// DefaultInitialBackoff is the delay before the first reconnection
	// attempt.
	DefaultInitialBackoff = 100 * time.Millisecond

	// DefaultMaxBackoff is the maximum reconnection delay.
	DefaultMaxBackoff = 10 * time.Second

	// DefaultMultiplier is the factor by which backoff increases.
	DefaultMultiplier = 2.0

	// DefaultJitter is the maximum jitter as a fraction of base delay.
	DefaultJitter = 0.25
)

// Policy maps a retry attempt index to a delay duration.
//
// A Policy must accept any attempt >= 0 and return a non-negative
// duration. It must not depend on external mutable state; a random jitter
// component is fine.
type Policy func(attempt int) time.Duration

// BackoffConfig allows customizing the exponential policy.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Exponential returns a Policy whose base delay grows exponentially with
// the attempt index, capped at the maximum, with random jitter added on
// top. Zero-value fields fall back to the package defaults; a negative
// Jitter disables jitter entirely.
func Exponential(cfg BackoffConfig) Policy {
	if cfg.Initial <= 0 {
		cfg.Initial = DefaultInitialBackoff
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultMaxBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = DefaultMultiplier
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = DefaultJitter
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}

	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}

		base := float64(cfg.Initial) * math.Pow(cfg.Multiplier, float64(attempt))
		if base > float64(cfg.Max) {
			base = float64(cfg.Max)
		}

		delay := time.Duration(base)
		if cfg.Jitter > 0 {
			delay += time.Duration(base * cfg.Jitter * rand.Float64())
		}
		return delay
	}
}

// Constant returns a Policy with a fixed delay for every attempt.
func Constant(d time.Duration) Policy {
	return func(int) time.Duration { return d }
}

// DefaultPolicy is the exponential policy with default settings.
var DefaultPolicy = Exponential(BackoffConfig{})
