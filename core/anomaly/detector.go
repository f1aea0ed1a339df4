package anomaly

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatekeeperhq/gatekeeper/core/secevent"
)

// Severity labels carried in the suspicious_activity event details.
const (
	SeverityMultiIP      = "multi_ip"
	SeverityRapidSession = "rapid_session_creation"
)

// History is the read-only view of session activity the detector needs.
type History interface {
	// DistinctIPs returns how many distinct IP addresses touched the
	// user's sessions since the given time.
	DistinctIPs(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// SessionsCreated returns how many sessions were created for the
	// user since the given time.
	SessionsCreated(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// Config holds detection thresholds.
type Config struct {
	// MaxDistinctIPs is the distinct-IP count above which the multi_ip
	// rule trips.
	MaxDistinctIPs int `env:"ANOMALY_MAX_DISTINCT_IPS" envDefault:"3"`

	// DistinctIPWindow is the trailing window for the multi_ip rule.
	DistinctIPWindow time.Duration `env:"ANOMALY_DISTINCT_IP_WINDOW" envDefault:"1h"`

	// MaxNewSessions is the created-session count above which the
	// rapid_session_creation rule trips.
	MaxNewSessions int `env:"ANOMALY_MAX_NEW_SESSIONS" envDefault:"3"`

	// NewSessionWindow is the trailing window for the
	// rapid_session_creation rule.
	NewSessionWindow time.Duration `env:"ANOMALY_NEW_SESSION_WINDOW" envDefault:"10m"`
}

func defaultConfig() Config {
	return Config{
		MaxDistinctIPs:   3,
		DistinctIPWindow: time.Hour,
		MaxNewSessions:   3,
		NewSessionWindow: 10 * time.Minute,
	}
}

// Detector inspects a user's recent session history for anomalies.
type Detector struct {
	history History
	events  *secevent.Recorder
	cfg     Config
	logger  *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithConfig replaces the detection thresholds.
func WithConfig(cfg Config) Option {
	return func(d *Detector) {
		d.cfg = cfg
	}
}

// WithLogger sets the logger for swallowed history read failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDetector creates a detector. Panics if history or events is nil.
func NewDetector(history History, events *secevent.Recorder, opts ...Option) *Detector {
	if history == nil {
		panic("anomaly: history is required")
	}
	if events == nil {
		panic("anomaly: event recorder is required")
	}

	d := &Detector{
		history: history,
		events:  events,
		cfg:     defaultConfig(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Inspect evaluates both rules for userID at login time. It records a
// suspicious_activity event per tripped rule and always returns: the
// outcome never influences whether the login proceeds.
func (d *Detector) Inspect(ctx context.Context, userID uuid.UUID, ip, userAgent string) {
	now := time.Now().UTC()

	// The observed user agent adds context for whoever reviews the trail.
	agent := ""
	if userAgent != "" {
		agent = fmt.Sprintf(" (agent %q)", userAgent)
	}

	if n, err := d.history.DistinctIPs(ctx, userID, now.Add(-d.cfg.DistinctIPWindow)); err != nil {
		d.logger.WarnContext(ctx, "anomaly history read failed",
			slog.String("rule", SeverityMultiIP),
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
	} else if n > d.cfg.MaxDistinctIPs {
		d.events.Record(ctx, secevent.TypeSuspiciousActivity,
			fmt.Sprintf("severity=%s: sessions touched from %d distinct IPs within %s%s",
				SeverityMultiIP, n, d.cfg.DistinctIPWindow, agent),
			secevent.WithIP(ip),
			secevent.WithUser(userID),
		)
	}

	if n, err := d.history.SessionsCreated(ctx, userID, now.Add(-d.cfg.NewSessionWindow)); err != nil {
		d.logger.WarnContext(ctx, "anomaly history read failed",
			slog.String("rule", SeverityRapidSession),
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
	} else if n > d.cfg.MaxNewSessions {
		d.events.Record(ctx, secevent.TypeSuspiciousActivity,
			fmt.Sprintf("severity=%s: %d sessions created within %s%s",
				SeverityRapidSession, n, d.cfg.NewSessionWindow, agent),
			secevent.WithIP(ip),
			secevent.WithUser(userID),
		)
	}
}
