package licensing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/licensekit/pkg/licensekey"
	"github.com/dmitrymomot/licensekit/pkg/sitesig"
)

// Validate checks a license for a given site and enforces the site quota.
// Unknown sites are registered as part of validation when quota allows; a
// site that is already registered is never rejected for quota reasons, even
// when the quota has since been lowered below the active count. Calls
// without a site URL, or with ActionStatus, answer without touching site
// usage.
//
// The returned Verdict is always usable; the error return carries only
// infrastructure failures the caller may want to retry.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (*Verdict, error) {
	key := licensekey.Normalize(req.LicenseKey)
	if key == "" {
		return invalidVerdict("license key is required"), nil
	}

	lic, err := s.store.GetLicenseByKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrLicenseNotFound) {
			return invalidVerdict("license key not found"), nil
		}
		return nil, err
	}

	lic = s.applyLazyExpiry(ctx, lic)
	if !lic.Status.Operational() {
		v := s.buildVerdict(ctx, lic, VerdictInactive, "license is "+string(lic.Status))
		return v, nil
	}

	// Without a site URL the call is a pure status check.
	if req.SiteURL == "" {
		return s.buildVerdict(ctx, lic, VerdictValid, "license is valid"), nil
	}

	sig, err := sitesig.Compute(req.SiteURL, req.InstallPath)
	if err != nil {
		return invalidVerdict("invalid site URL"), nil
	}

	site, err := s.store.GetSite(ctx, key, sig)
	switch {
	case err == nil && site.Status == SiteActive:
		s.heartbeat(ctx, lic, site, req)
		return s.buildVerdict(ctx, lic, VerdictValid, "license is valid"), nil
	case err == nil:
		if req.Action == ActionStatus {
			return s.buildVerdict(ctx, lic, VerdictValid, "license is valid"), nil
		}
		return s.readmitSite(ctx, lic, site, req)
	case errors.Is(err, ErrSiteNotFound):
		if req.Action == ActionStatus {
			return s.buildVerdict(ctx, lic, VerdictValid, "license is valid"), nil
		}
		return s.admitSite(ctx, lic, sig, req)
	default:
		return nil, err
	}
}

// admitSite registers a site the license has never seen. Admission and the
// quota check are a single store operation so concurrent registrations
// cannot blow past the limit.
func (s *Service) admitSite(ctx context.Context, lic *License, sig string, req ValidateRequest) (*Verdict, error) {
	now := s.now().UTC()
	site := &SiteUsage{
		LicenseKey:    lic.Key,
		SiteSignature: sig,
		SiteURL:       req.SiteURL,
		Status:        SiteActive,
		RegisteredAt:  now,
		LastSeenAt:    now,
	}

	admitted, err := s.store.AdmitSite(ctx, site, lic.SiteLimit)
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			// Concurrent validation from the same site registered it first.
			return s.buildVerdict(ctx, lic, VerdictValid, "license is valid"), nil
		}
		return nil, err
	}
	if !admitted {
		s.log.InfoContext(ctx, "site quota exceeded",
			slog.String("license_key", lic.Key),
			slog.String("site_signature", sig))
		return s.buildVerdict(ctx, lic, VerdictQuotaExceeded, "site quota exceeded"), nil
	}

	s.trackInstall(ctx, lic.Key, sig, req)
	return s.buildVerdict(ctx, lic, VerdictValid, "license is valid"), nil
}

// readmitSite reactivates a previously deactivated site. A site the license
// has seen before counts as known and skips the quota check entirely.
func (s *Service) readmitSite(ctx context.Context, lic *License, site *SiteUsage, req ValidateRequest) (*Verdict, error) {
	now := s.now().UTC()
	site.Status = SiteActive
	site.SiteURL = req.SiteURL
	site.LastSeenAt = now
	site.DeactivatedAt = nil
	if err := s.store.SaveSite(ctx, site); err != nil {
		return nil, err
	}

	s.trackInstall(ctx, lic.Key, site.SiteSignature, req)
	return s.buildVerdict(ctx, lic, VerdictValid, "license is valid"), nil
}

// heartbeat refreshes last-seen bookkeeping for a known active site,
// throttled so high-traffic sites do not write on every check.
func (s *Service) heartbeat(ctx context.Context, lic *License, site *SiteUsage, req ValidateRequest) {
	if !s.throttle.Allow(ctx, lic.Key, site.SiteSignature) {
		return
	}
	site.LastSeenAt = s.now().UTC()
	site.SiteURL = req.SiteURL
	if err := s.store.SaveSite(ctx, site); err != nil {
		s.log.WarnContext(ctx, "heartbeat update failed",
			slog.String("license_key", lic.Key), slog.Any("error", err))
	}
	s.trackInstall(ctx, lic.Key, site.SiteSignature, req)
}

// trackInstall records the client version seen at a site. Best effort.
func (s *Service) trackInstall(ctx context.Context, licenseKey, sig string, req ValidateRequest) {
	if req.ClientVersion == "" {
		return
	}
	now := s.now().UTC()
	inst := &Install{
		LicenseKey:    licenseKey,
		SiteSignature: sig,
		SiteURL:       req.SiteURL,
		ClientVersion: req.ClientVersion,
		FirstSeenAt:   now,
		LastSeenAt:    now,
	}
	if err := s.store.UpsertInstall(ctx, inst); err != nil {
		s.log.WarnContext(ctx, "install tracking failed",
			slog.String("license_key", licenseKey), slog.Any("error", err))
	}
}

// applyLazyExpiry flips an operational license past its expiry date into the
// expired status. There is no background sweeper; expiry takes effect at the
// first check after the deadline. A failed persist still reports expired.
func (s *Service) applyLazyExpiry(ctx context.Context, lic *License) *License {
	now := s.now().UTC()
	if !lic.Status.Operational() || !lic.ExpiredAt(now) {
		return lic
	}
	lic.Status = StatusExpired
	lic.UpdatedAt = now
	if err := s.store.UpdateLicense(ctx, lic); err != nil {
		s.log.WarnContext(ctx, "expiry transition persist failed",
			slog.String("license_key", lic.Key), slog.Any("error", err))
	}
	return lic
}

func (s *Service) buildVerdict(ctx context.Context, lic *License, code VerdictCode, message string) *Verdict {
	v := &Verdict{
		Code:         code,
		Message:      message,
		PlanType:     lic.PlanType,
		Status:       lic.Status,
		CustomerName: lic.CustomerName,
		ExpiresAt:    lic.ExpiresAt,
		SiteLimit:    lic.SiteLimit,
	}

	active, err := s.store.CountActiveSites(ctx, lic.Key)
	if err != nil {
		s.log.WarnContext(ctx, "active site count failed",
			slog.String("license_key", lic.Key), slog.Any("error", err))
		return v
	}
	v.SitesActive = active
	if lic.Unlimited() {
		v.SitesRemaining = lic.SiteLimit
	} else {
		v.SitesRemaining = max(lic.SiteLimit-active, 0)
	}
	return v
}

func invalidVerdict(message string) *Verdict {
	return &Verdict{Code: VerdictInvalid, Message: message}
}
