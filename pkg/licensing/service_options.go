package licensing

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/licensekit/pkg/notify"
)

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the channel set issued keys are forwarded to.
func WithNotifier(n notify.Forwarder) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithThrottle limits how often validation heartbeats hit the store.
func WithThrottle(t Throttle) Option {
	return func(s *Service) {
		if t != nil {
			s.throttle = t
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithKeyGenerator overrides license key generation. Mostly useful in tests
// for deterministic keys and collision scenarios.
func WithKeyGenerator(gen func(prefix string) (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.keyGen = gen
		}
	}
}

// WithKeyRetries bounds how many fresh keys are tried when the store reports
// a collision.
func WithKeyRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.keyRetries = n
		}
	}
}

// WithClock overrides the time source. Tests use this to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTrialPolicy sets the trial duration, site quota and key prefix.
func WithTrialPolicy(days int, siteLimit int64, keyPrefix string) Option {
	return func(s *Service) {
		if days > 0 {
			s.trialDays = days
		}
		if siteLimit != 0 {
			s.trialSiteLimit = siteLimit
		}
		if keyPrefix != "" {
			s.trialKeyPrefix = keyPrefix
		}
	}
}
