package licensing

import (
	"context"

	"github.com/dmitrymomot/licensekit/pkg/licensekey"
	"github.com/dmitrymomot/licensekit/pkg/sitesig"
)

// RegisterSite explicitly admits a site under the license quota. It is the
// same admission path validation uses, exposed for clients that separate
// activation from routine checks.
func (s *Service) RegisterSite(ctx context.Context, req ValidateRequest) (*Verdict, error) {
	req.Action = ActionRegister
	return s.Validate(ctx, req)
}

// UnregisterSite releases a site slot. The registration row stays behind as
// a deactivated record; releasing an already released or unknown site
// returns ErrSiteNotFound.
func (s *Service) UnregisterSite(ctx context.Context, licenseKey, siteURL, installPath string) error {
	key := licensekey.Normalize(licenseKey)
	if key == "" {
		return ErrMissingLicenseKey
	}
	sig, err := sitesig.Compute(siteURL, installPath)
	if err != nil {
		return err
	}

	site, err := s.store.GetSite(ctx, key, sig)
	if err != nil {
		return err
	}
	if site.Status == SiteDeactivated {
		return ErrSiteNotFound
	}

	now := s.now().UTC()
	site.Status = SiteDeactivated
	site.DeactivatedAt = &now
	return s.store.SaveSite(ctx, site)
}

// UsageReport describes a license and its registered sites.
type UsageReport struct {
	License     *License
	Sites       []SiteUsage
	SitesActive int64
}

// Usage returns the license record and every site ever registered against
// it, deactivated ones included.
func (s *Service) Usage(ctx context.Context, licenseKey string) (*UsageReport, error) {
	key := licensekey.Normalize(licenseKey)
	if key == "" {
		return nil, ErrMissingLicenseKey
	}

	lic, err := s.store.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	lic = s.applyLazyExpiry(ctx, lic)

	sites, err := s.store.ListSites(ctx, key)
	if err != nil {
		return nil, err
	}

	var active int64
	for _, site := range sites {
		if site.Status == SiteActive {
			active++
		}
	}

	return &UsageReport{License: lic, Sites: sites, SitesActive: active}, nil
}
