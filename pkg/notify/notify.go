package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/licensekit/pkg/logger"
)

// Issuance describes a license issuance event for downstream delivery.
type Issuance struct {
	LicenseKey    string     `json:"license_key"`
	PlanType      string     `json:"plan_type"`
	CustomerEmail string     `json:"customer_email"`
	CustomerName  string     `json:"customer_name"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	IssuedAt      time.Time  `json:"issued_at"`
}

// Forwarder delivers an issuance event through one channel.
type Forwarder interface {
	ForwardIssuance(ctx context.Context, iss Issuance) error
}

// Multi fans an issuance event out to several channels. Per-channel failures
// are logged and swallowed so one broken channel cannot starve the others.
type Multi struct {
	forwarders []Forwarder
	log        *slog.Logger
	timeout    time.Duration
}

// MultiOption configures a Multi forwarder.
type MultiOption func(*Multi)

// WithLogger sets the logger used for per-channel failures.
func WithLogger(log *slog.Logger) MultiOption {
	return func(m *Multi) {
		if log != nil {
			m.log = log
		}
	}
}

// WithTimeout bounds each channel's delivery attempt.
func WithTimeout(d time.Duration) MultiOption {
	return func(m *Multi) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewMulti creates a fan-out forwarder over the given channels.
func NewMulti(forwarders []Forwarder, opts ...MultiOption) *Multi {
	m := &Multi{
		forwarders: forwarders,
		log:        slog.Default(),
		timeout:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ForwardIssuance delivers the event to every channel. Always returns nil:
// the caller's primary effect must never depend on notification delivery.
func (m *Multi) ForwardIssuance(ctx context.Context, iss Issuance) error {
	for i, f := range m.forwarders {
		deliverCtx, cancel := context.WithTimeout(ctx, m.timeout)
		if err := f.ForwardIssuance(deliverCtx, iss); err != nil {
			m.log.LogAttrs(ctx, slog.LevelError, "Failed to forward issuance notification",
				logger.LicenseKey(iss.LicenseKey),
				logger.Customer(iss.CustomerEmail),
				slog.Int("forwarder_index", i),
				logger.Error(err),
			)
		}
		cancel()
	}
	return nil
}
