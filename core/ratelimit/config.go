package ratelimit

import (
	"log/slog"
	"time"
)

// Config holds limiter thresholds.
type Config struct {
	// MaxAttempts is the failure count that triggers a block.
	MaxAttempts int `env:"RATE_LIMIT_MAX_ATTEMPTS" envDefault:"5"`

	// Window is the trailing duration failures are counted over.
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"5m"`

	// BlockDuration is how long an escalated IP stays blocked.
	BlockDuration time.Duration `env:"RATE_LIMIT_BLOCK_DURATION" envDefault:"15m"`
}

func defaultLimiterConfig() Config {
	return Config{
		MaxAttempts:   5,
		Window:        5 * time.Minute,
		BlockDuration: 15 * time.Minute,
	}
}

// Option is a functional option for configuring the Limiter.
type Option func(*Limiter)

// WithMaxAttempts sets the failure count that triggers a block.
func WithMaxAttempts(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.cfg.MaxAttempts = n
		}
	}
}

// WithWindow sets the sliding failure window.
func WithWindow(window time.Duration) Option {
	return func(l *Limiter) {
		if window > 0 {
			l.cfg.Window = window
		}
	}
}

// WithBlockDuration sets how long an escalated IP stays blocked.
func WithBlockDuration(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.cfg.BlockDuration = d
		}
	}
}

// WithConfig replaces the whole configuration, typically one loaded
// from environment variables.
func WithConfig(cfg Config) Option {
	return func(l *Limiter) {
		l.cfg = cfg
	}
}

// WithLogger sets the logger for internal operations.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}
