package licensing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/licensekit/pkg/licensekey"
)

// ListLicenses pages through all licenses, newest first.
func (s *Service) ListLicenses(ctx context.Context, limit, offset int) ([]License, error) {
	return s.store.ListLicenses(ctx, limit, offset)
}

// ResetUsage deactivates every active site on a license, freeing the whole
// quota. Site history stays behind as deactivated records.
func (s *Service) ResetUsage(ctx context.Context, licenseKey string) error {
	key := licensekey.Normalize(licenseKey)
	if key == "" {
		return ErrMissingLicenseKey
	}
	if _, err := s.store.GetLicenseByKey(ctx, key); err != nil {
		return err
	}
	if err := s.store.DeactivateAllSites(ctx, key); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "site usage reset", slog.String("license_key", key))
	return nil
}

// SetStatus forces a license into the given status. Used by operators to
// reinstate or retire licenses outside the billing flow.
func (s *Service) SetStatus(ctx context.Context, licenseKey string, status LicenseStatus) (*License, error) {
	switch status {
	case StatusTrial, StatusActive, StatusCancelled, StatusExpired:
	default:
		return nil, fmt.Errorf("unknown license status: %s", status)
	}

	key := licensekey.Normalize(licenseKey)
	if key == "" {
		return nil, ErrMissingLicenseKey
	}

	lic, err := s.store.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	lic.Status = status
	lic.UpdatedAt = now
	if status == StatusCancelled {
		lic.CancelledAt = &now
	} else {
		lic.CancelledAt = nil
	}
	if err := s.store.UpdateLicense(ctx, lic); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "license status changed",
		slog.String("license_key", key), slog.String("status", string(status)))
	return lic, nil
}
