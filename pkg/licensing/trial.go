package licensing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/licensekit/pkg/plans"
)

// TrialResult reports a trial request outcome. The license key is absent on
// purpose: trial keys reach the customer only through the notification
// channels, never through the requesting client.
type TrialResult struct {
	PlanType  plans.Type
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// TrialExistsError rejects a repeat trial request. It names when the
// earlier trial was issued so the refusal can say so.
type TrialExistsError struct {
	IssuedAt time.Time
}

func (e *TrialExistsError) Error() string {
	return "a trial was already issued for this email on " + e.IssuedAt.Format("2006-01-02")
}

func (e *TrialExistsError) Unwrap() error { return ErrTrialExists }

// StartTrial issues a trial license for the given email. At most one
// non-terminal trial may exist per email; a repeat request while one is
// live fails with a TrialExistsError naming the original issuance date.
func (s *Service) StartTrial(ctx context.Context, email, name string) (*TrialResult, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}

	existing, err := s.store.FindLicenseByCustomer(ctx, email, string(plans.TypeTrial), nonTerminalStatuses)
	if err != nil && !errors.Is(err, ErrLicenseNotFound) {
		return nil, err
	}
	if existing != nil {
		// A trial past its horizon but never validated still sits in the
		// trial status; flip it before deciding so expiry does not depend
		// on the customer having validated.
		existing = s.applyLazyExpiry(ctx, existing)
		if existing.Status.Operational() {
			return nil, &TrialExistsError{IssuedAt: existing.CreatedAt}
		}
	}

	plan := plans.Plan{
		Type:      plans.TypeTrial,
		KeyPrefix: s.trialKeyPrefix,
		SiteLimit: s.trialSiteLimit,
		TermDays:  s.trialDays,
	}

	lic, err := s.issueLicense(ctx, plan, email, name)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "trial issued",
		slog.String("customer_email", email),
		slog.String("license_key", lic.Key))
	s.forwardIssuance(ctx, lic)

	return &TrialResult{
		PlanType:  lic.PlanType,
		ExpiresAt: *lic.ExpiresAt,
		IssuedAt:  lic.CreatedAt,
	}, nil
}
