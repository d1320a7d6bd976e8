package licensing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/licensekit/pkg/plans"
)

// WebhookOutcome reports what a processed billing event changed.
type WebhookOutcome string

const (
	// OutcomeIssued means a new license was created.
	OutcomeIssued WebhookOutcome = "issued"
	// OutcomeRenewed means an existing license had its term extended.
	OutcomeRenewed WebhookOutcome = "renewed"
	// OutcomeCancelled means an existing license was marked cancelled.
	OutcomeCancelled WebhookOutcome = "cancelled"
	// OutcomeDuplicate means the event matched an already existing license
	// and nothing changed. Re-deliveries land here.
	OutcomeDuplicate WebhookOutcome = "duplicate"
	// OutcomeIgnored means the event was acknowledged without any effect:
	// unknown event type, unresolvable plan, or cancel for a license that
	// does not exist.
	OutcomeIgnored WebhookOutcome = "ignored"
)

// HandleWebhook applies a verified, normalized billing event to the store.
// Returned errors are infrastructure failures only; the provider should
// retry those. Everything the service chooses not to act on comes back as
// OutcomeIgnored with a nil error so the delivery is acknowledged and the
// provider stops resending it.
func (s *Service) HandleWebhook(ctx context.Context, event *Event) (WebhookOutcome, error) {
	if event == nil {
		return OutcomeIgnored, ErrMalformedEvent
	}

	log := s.log.With(
		slog.String("event_id", event.EventID),
		slog.String("event_type", string(event.Type)),
	)

	switch event.Type {
	case EventPurchaseCompleted:
		return s.handlePurchase(ctx, log, event)
	case EventPaymentSucceeded:
		return s.handleRenewal(ctx, log, event)
	case EventSubscriptionCancelled:
		return s.handleCancellation(ctx, log, event)
	default:
		log.InfoContext(ctx, "billing event ignored")
		return OutcomeIgnored, nil
	}
}

func (s *Service) handlePurchase(ctx context.Context, log *slog.Logger, event *Event) (WebhookOutcome, error) {
	plan, err := s.resolver.Resolve(event.PriceID, event.ProductName)
	if err != nil {
		log.WarnContext(ctx, "purchase did not resolve to a plan",
			slog.String("price_id", event.PriceID),
			slog.String("product_name", event.ProductName))
		return OutcomeIgnored, nil
	}
	if event.CustomerEmail == "" {
		log.WarnContext(ctx, "purchase event has no customer email")
		return OutcomeIgnored, nil
	}

	existing, err := s.store.FindLicenseByCustomer(ctx, event.CustomerEmail, string(plan.Type), nonTerminalStatuses)
	if err != nil && !errors.Is(err, ErrLicenseNotFound) {
		return OutcomeIgnored, err
	}
	if existing != nil {
		log.InfoContext(ctx, "purchase already fulfilled",
			slog.String("license_key", existing.Key))
		return OutcomeDuplicate, nil
	}

	lic, err := s.issueLicense(ctx, plan, event.CustomerEmail, event.CustomerName)
	if err != nil {
		return OutcomeIgnored, err
	}

	log.InfoContext(ctx, "license issued",
		slog.String("license_key", lic.Key),
		slog.String("plan_type", string(plan.Type)))
	s.forwardIssuance(ctx, lic)
	return OutcomeIssued, nil
}

// handleRenewal extends the matching license. A renewal with no live license
// on record bootstraps one, which covers deliveries that arrive out of order
// or purchases the service never saw.
func (s *Service) handleRenewal(ctx context.Context, log *slog.Logger, event *Event) (WebhookOutcome, error) {
	plan, err := s.resolver.Resolve(event.PriceID, event.ProductName)
	if err != nil {
		log.WarnContext(ctx, "renewal did not resolve to a plan",
			slog.String("price_id", event.PriceID),
			slog.String("product_name", event.ProductName))
		return OutcomeIgnored, nil
	}
	if event.CustomerEmail == "" {
		log.WarnContext(ctx, "renewal event has no customer email")
		return OutcomeIgnored, nil
	}

	lic, err := s.store.FindLicenseByCustomer(ctx, event.CustomerEmail, string(plan.Type), nonTerminalStatuses)
	if err != nil {
		if errors.Is(err, ErrLicenseNotFound) {
			return s.handlePurchase(ctx, log, event)
		}
		return OutcomeIgnored, err
	}

	now := s.now().UTC()
	lic.Status = StatusActive
	lic.UpdatedAt = now
	if plan.TermDays > 0 {
		// Extend from the current expiry when still in the future so early
		// renewals do not shorten the term.
		base := now
		if lic.ExpiresAt != nil && lic.ExpiresAt.After(now) {
			base = lic.ExpiresAt.UTC()
		}
		t := base.AddDate(0, 0, plan.TermDays)
		lic.ExpiresAt = &t
	} else {
		// Open-ended plans carry no expiry; a successful charge clears any
		// marker left behind by earlier state.
		lic.ExpiresAt = nil
	}
	if err := s.store.UpdateLicense(ctx, lic); err != nil {
		return OutcomeIgnored, err
	}

	log.InfoContext(ctx, "license renewed", slog.String("license_key", lic.Key))
	return OutcomeRenewed, nil
}

func (s *Service) handleCancellation(ctx context.Context, log *slog.Logger, event *Event) (WebhookOutcome, error) {
	if event.CustomerEmail == "" {
		log.WarnContext(ctx, "cancellation event has no customer email")
		return OutcomeIgnored, nil
	}

	planType := plans.TypeSubscription
	if plan, err := s.resolver.Resolve(event.PriceID, event.ProductName); err == nil {
		planType = plan.Type
	}

	lic, err := s.store.FindLicenseByCustomer(ctx, event.CustomerEmail, string(planType), nonTerminalStatuses)
	if err != nil {
		if errors.Is(err, ErrLicenseNotFound) {
			// Nothing to cancel. Acknowledge so the provider stops retrying.
			log.InfoContext(ctx, "cancellation for unknown license")
			return OutcomeIgnored, nil
		}
		return OutcomeIgnored, err
	}

	now := s.now().UTC()
	lic.Status = StatusCancelled
	lic.CancelledAt = &now
	lic.UpdatedAt = now
	if err := s.store.UpdateLicense(ctx, lic); err != nil {
		return OutcomeIgnored, err
	}

	log.InfoContext(ctx, "license cancelled", slog.String("license_key", lic.Key))
	return OutcomeCancelled, nil
}
