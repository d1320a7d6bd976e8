package licensing

import (
	"context"
)

// Store is the persistence boundary for license, site-usage, and heartbeat
// state. It is the only shared mutable resource in the service; every
// implementation must provide the uniqueness guarantees documented per
// method.
type Store interface {
	// CreateLicense inserts a new license row. Returns ErrDuplicateKey when
	// the key is already taken, which the caller treats as retryable.
	CreateLicense(ctx context.Context, lic *License) error

	// GetLicenseByKey returns the license with the given key or
	// ErrLicenseNotFound.
	GetLicenseByKey(ctx context.Context, key string) (*License, error)

	// FindLicenseByCustomer returns the newest license matching the email,
	// plan type, and any of the given statuses, or ErrLicenseNotFound.
	FindLicenseByCustomer(ctx context.Context, email string, planType string, statuses []LicenseStatus) (*License, error)

	// UpdateLicense persists status, expiry, and timestamp changes for an
	// existing license, matched by key.
	UpdateLicense(ctx context.Context, lic *License) error

	// ListLicenses returns licenses ordered by creation time, newest first.
	ListLicenses(ctx context.Context, limit, offset int) ([]License, error)

	// GetSite returns the registration for (licenseKey, siteSignature)
	// regardless of its status, or ErrSiteNotFound.
	GetSite(ctx context.Context, licenseKey, siteSignature string) (*SiteUsage, error)

	// CountActiveSites returns the number of active registrations for a
	// license.
	CountActiveSites(ctx context.Context, licenseKey string) (int64, error)

	// AdmitSite atomically inserts an active registration if and only if the
	// count of active registrations stays within limit (limit -1 admits
	// unconditionally). Returns false without inserting when the quota is
	// full, and ErrDuplicateKey when the site is already registered.
	AdmitSite(ctx context.Context, site *SiteUsage, limit int64) (bool, error)

	// SaveSite persists status and last-seen changes for an existing
	// registration, matched by (LicenseKey, SiteSignature).
	SaveSite(ctx context.Context, site *SiteUsage) error

	// ListSites returns all registrations for a license, including
	// deactivated ones.
	ListSites(ctx context.Context, licenseKey string) ([]SiteUsage, error)

	// DeactivateAllSites soft-deletes every active registration for a
	// license. Used by the admin reset operation.
	DeactivateAllSites(ctx context.Context, licenseKey string) error

	// UpsertInstall records a heartbeat for an installation, creating the
	// row on first sighting and refreshing last-seen afterwards.
	UpsertInstall(ctx context.Context, inst *Install) error
}
