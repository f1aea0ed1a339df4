package session

import (
	"log/slog"
	"time"
)

// Config holds session manager configuration.
type Config struct {
	// TTL is the session time-to-live set at creation and on extension.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// TouchInterval is the minimum time between last-activity updates.
	// Throttling keeps validation cheap on the per-request hot path.
	// Set to 0 to touch on every validation.
	TouchInterval time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"5m"`
}

func defaultConfig() Config {
	return Config{
		TTL:           24 * time.Hour,
		TouchInterval: 5 * time.Minute,
	}
}

// Option is a functional option for configuring the session manager.
type Option func(*Manager)

// WithTTL sets the session time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.cfg.TTL = ttl
		}
	}
}

// WithTouchInterval sets the minimum time between last-activity writes.
func WithTouchInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval >= 0 {
			m.cfg.TouchInterval = interval
		}
	}
}

// WithConfig replaces the whole configuration, typically one loaded
// from environment variables.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithLogger sets the logger for non-fatal internal failures such as
// throttled touch writes.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}
