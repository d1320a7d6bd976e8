package licensing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/licensekit/pkg/licensekey"
	"github.com/dmitrymomot/licensekit/pkg/notify"
	"github.com/dmitrymomot/licensekit/pkg/plans"
)

// Service is the entitlement core. It turns billing events into licenses,
// answers validation checks and enforces per-license site quotas.
type Service struct {
	store    Store
	resolver plans.Resolver
	notifier notify.Forwarder
	throttle Throttle
	log      *slog.Logger

	keyGen     func(prefix string) (string, error)
	keyRetries int
	now        func() time.Time

	trialDays      int
	trialSiteLimit int64
	trialKeyPrefix string
}

// NewService wires an entitlement service around a store and a plan resolver.
// Notification forwarding is optional; without a forwarder, issued keys are
// only reachable through the store.
func NewService(store Store, resolver plans.Resolver, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if resolver == nil {
		return nil, errors.New("plan resolver is required")
	}

	s := &Service{
		store:          store,
		resolver:       resolver,
		throttle:       noopThrottle{},
		log:            slog.Default(),
		keyGen:         licensekey.Generate,
		keyRetries:     3,
		now:            time.Now,
		trialDays:      14,
		trialSiteLimit: 1,
		trialKeyPrefix: "TRIAL",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// issueLicense creates a license for the given plan, retrying key generation
// on store-level key collisions. The unique constraint on license_key is the
// authority on uniqueness; generation itself never checks the store.
func (s *Service) issueLicense(ctx context.Context, plan plans.Plan, email, name string) (*License, error) {
	now := s.now().UTC()

	var expiresAt *time.Time
	if plan.TermDays > 0 {
		t := now.AddDate(0, 0, plan.TermDays)
		expiresAt = &t
	}

	status := StatusActive
	if plan.Type == plans.TypeTrial {
		status = StatusTrial
	}

	var lastErr error
	for attempt := 0; attempt < s.keyRetries; attempt++ {
		key, err := s.keyGen(plan.KeyPrefix)
		if err != nil {
			return nil, err
		}

		lic := &License{
			ID:            uuid.New(),
			Key:           key,
			PlanType:      plan.Type,
			Status:        status,
			CustomerEmail: email,
			CustomerName:  name,
			SiteLimit:     plan.SiteLimit,
			ExpiresAt:     expiresAt,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.store.CreateLicense(ctx, lic); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return lic, nil
	}
	return nil, errors.Join(ErrKeyGenExhausted, lastErr)
}

// forwardIssuance pushes the freshly issued key to the configured channels.
// Delivery is best effort and never fails the issuing operation.
func (s *Service) forwardIssuance(ctx context.Context, lic *License) {
	if s.notifier == nil {
		return
	}
	iss := notify.Issuance{
		LicenseKey:    lic.Key,
		PlanType:      string(lic.PlanType),
		CustomerEmail: lic.CustomerEmail,
		CustomerName:  lic.CustomerName,
		ExpiresAt:     lic.ExpiresAt,
		IssuedAt:      lic.CreatedAt,
	}
	if err := s.notifier.ForwardIssuance(ctx, iss); err != nil {
		s.log.ErrorContext(ctx, "issuance notification failed",
			slog.String("license_key", lic.Key), slog.Any("error", err))
	}
}
