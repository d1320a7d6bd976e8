package licensing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/licensekit/pkg/pg"
	"github.com/dmitrymomot/licensekit/pkg/plans"
)

// PostgresStore implements Store on a pgx connection pool. Schema lives in
// the migrations directory; see pg.Migrate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a connection pool as an entitlement store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const licenseColumns = `id, license_key, plan_type, status, customer_email, customer_name,
	site_limit, expires_at, created_at, updated_at, cancelled_at`

func (s *PostgresStore) CreateLicense(ctx context.Context, lic *License) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO licenses (id, license_key, plan_type, status, customer_email, customer_name,
			site_limit, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		lic.ID, lic.Key, lic.PlanType, lic.Status, lic.CustomerEmail, lic.CustomerName,
		lic.SiteLimit, lic.ExpiresAt, lic.CreatedAt, lic.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) GetLicenseByKey(ctx context.Context, key string) (*License, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+licenseColumns+` FROM licenses WHERE license_key = $1`, key)
	return scanLicense(row)
}

func (s *PostgresStore) FindLicenseByCustomer(ctx context.Context, email string, planType string, statuses []LicenseStatus) (*License, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+licenseColumns+` FROM licenses
		WHERE customer_email = $1 AND plan_type = $2 AND status = ANY($3)
		ORDER BY created_at DESC
		LIMIT 1`,
		email, planType, statusStrings(statuses),
	)
	return scanLicense(row)
}

func (s *PostgresStore) UpdateLicense(ctx context.Context, lic *License) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE licenses
		SET status = $2, expires_at = $3, updated_at = $4, cancelled_at = $5
		WHERE license_key = $1`,
		lic.Key, lic.Status, lic.ExpiresAt, lic.UpdatedAt, lic.CancelledAt,
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLicenseNotFound
	}
	return nil
}

func (s *PostgresStore) ListLicenses(ctx context.Context, limit, offset int) ([]License, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+licenseColumns+` FROM licenses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []License
	for rows.Next() {
		lic, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *lic)
	}
	return out, rows.Err()
}

const siteColumns = `license_key, site_signature, site_url, status,
	registered_at, last_seen_at, deactivated_at`

func (s *PostgresStore) GetSite(ctx context.Context, licenseKey, siteSignature string) (*SiteUsage, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+siteColumns+` FROM site_usage
		WHERE license_key = $1 AND site_signature = $2`,
		licenseKey, siteSignature)
	return scanSite(row)
}

func (s *PostgresStore) CountActiveSites(ctx context.Context, licenseKey string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM site_usage
		WHERE license_key = $1 AND status = 'active'`, licenseKey).Scan(&n)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return n, nil
}

// AdmitSite expresses "insert only if active-count < limit" as one statement
// so the admission check and the insert are a single store operation. The
// (license_key, site_signature) unique constraint guards duplicate rows.
func (s *PostgresStore) AdmitSite(ctx context.Context, site *SiteUsage, limit int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO site_usage (license_key, site_signature, site_url, status, registered_at, last_seen_at)
		SELECT $1, $2, $3, 'active', $4, $5
		WHERE $6::bigint = $7
		   OR (SELECT count(*) FROM site_usage WHERE license_key = $1 AND status = 'active') < $6`,
		site.LicenseKey, site.SiteSignature, site.SiteURL, site.RegisteredAt, site.LastSeenAt,
		limit, plans.Unlimited,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return false, ErrDuplicateKey
		}
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) SaveSite(ctx context.Context, site *SiteUsage) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE site_usage
		SET site_url = $3, status = $4, last_seen_at = $5, deactivated_at = $6
		WHERE license_key = $1 AND site_signature = $2`,
		site.LicenseKey, site.SiteSignature, site.SiteURL, site.Status,
		site.LastSeenAt, site.DeactivatedAt,
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSiteNotFound
	}
	return nil
}

func (s *PostgresStore) ListSites(ctx context.Context, licenseKey string) ([]SiteUsage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+siteColumns+` FROM site_usage
		WHERE license_key = $1
		ORDER BY registered_at`, licenseKey)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []SiteUsage
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *site)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeactivateAllSites(ctx context.Context, licenseKey string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE site_usage
		SET status = 'deactivated', deactivated_at = now()
		WHERE license_key = $1 AND status = 'active'`, licenseKey)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) UpsertInstall(ctx context.Context, inst *Install) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO installs (license_key, site_signature, site_url, client_version, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (license_key, site_signature)
		DO UPDATE SET site_url = $3, client_version = $4, last_seen_at = $6`,
		inst.LicenseKey, inst.SiteSignature, inst.SiteURL, inst.ClientVersion,
		inst.FirstSeenAt, inst.LastSeenAt,
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func scanLicense(row pgx.Row) (*License, error) {
	var lic License
	err := row.Scan(&lic.ID, &lic.Key, &lic.PlanType, &lic.Status, &lic.CustomerEmail,
		&lic.CustomerName, &lic.SiteLimit, &lic.ExpiresAt, &lic.CreatedAt,
		&lic.UpdatedAt, &lic.CancelledAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrLicenseNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &lic, nil
}

func scanSite(row pgx.Row) (*SiteUsage, error) {
	var site SiteUsage
	err := row.Scan(&site.LicenseKey, &site.SiteSignature, &site.SiteURL, &site.Status,
		&site.RegisteredAt, &site.LastSeenAt, &site.DeactivatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSiteNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &site, nil
}

func statusStrings(statuses []LicenseStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
