package licensing

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrymomot/licensekit/pkg/plans"
)

// MemoryStore is an in-memory Store for tests and local development. All
// operations run under one mutex, so the admission check is exact: the
// active-site count can never exceed a finite limit.
type MemoryStore struct {
	mu       sync.Mutex
	licenses map[string]*License  // by key
	sites    map[string]*SiteUsage // by licenseKey + "\x00" + signature
	installs map[string]*Install
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		licenses: make(map[string]*License),
		sites:    make(map[string]*SiteUsage),
		installs: make(map[string]*Install),
	}
}

func siteKey(licenseKey, sig string) string {
	return licenseKey + "\x00" + sig
}

func (s *MemoryStore) CreateLicense(_ context.Context, lic *License) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.licenses[lic.Key]; exists {
		return ErrDuplicateKey
	}
	cp := *lic
	s.licenses[lic.Key] = &cp
	return nil
}

func (s *MemoryStore) GetLicenseByKey(_ context.Context, key string) (*License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lic, ok := s.licenses[key]
	if !ok {
		return nil, ErrLicenseNotFound
	}
	cp := *lic
	return &cp, nil
}

func (s *MemoryStore) FindLicenseByCustomer(_ context.Context, email string, planType string, statuses []LicenseStatus) (*License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest *License
	for _, lic := range s.licenses {
		if lic.CustomerEmail != email || string(lic.PlanType) != planType {
			continue
		}
		if !statusIn(lic.Status, statuses) {
			continue
		}
		if newest == nil || lic.CreatedAt.After(newest.CreatedAt) {
			newest = lic
		}
	}
	if newest == nil {
		return nil, ErrLicenseNotFound
	}
	cp := *newest
	return &cp, nil
}

func (s *MemoryStore) UpdateLicense(_ context.Context, lic *License) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.licenses[lic.Key]; !ok {
		return ErrLicenseNotFound
	}
	cp := *lic
	s.licenses[lic.Key] = &cp
	return nil
}

func (s *MemoryStore) ListLicenses(_ context.Context, limit, offset int) ([]License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]License, 0, len(s.licenses))
	for _, lic := range s.licenses {
		all = append(all, *lic)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) GetSite(_ context.Context, licenseKey, siteSignature string) (*SiteUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	site, ok := s.sites[siteKey(licenseKey, siteSignature)]
	if !ok {
		return nil, ErrSiteNotFound
	}
	cp := *site
	return &cp, nil
}

func (s *MemoryStore) CountActiveSites(_ context.Context, licenseKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.countActiveLocked(licenseKey), nil
}

func (s *MemoryStore) countActiveLocked(licenseKey string) int64 {
	var n int64
	for _, site := range s.sites {
		if site.LicenseKey == licenseKey && site.Status == SiteActive {
			n++
		}
	}
	return n
}

func (s *MemoryStore) AdmitSite(_ context.Context, site *SiteUsage, limit int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := siteKey(site.LicenseKey, site.SiteSignature)
	if _, exists := s.sites[key]; exists {
		return false, ErrDuplicateKey
	}
	if limit != plans.Unlimited && s.countActiveLocked(site.LicenseKey) >= limit {
		return false, nil
	}
	cp := *site
	cp.Status = SiteActive
	s.sites[key] = &cp
	return true, nil
}

func (s *MemoryStore) SaveSite(_ context.Context, site *SiteUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := siteKey(site.LicenseKey, site.SiteSignature)
	if _, ok := s.sites[key]; !ok {
		return ErrSiteNotFound
	}
	cp := *site
	s.sites[key] = &cp
	return nil
}

func (s *MemoryStore) ListSites(_ context.Context, licenseKey string) ([]SiteUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SiteUsage
	for _, site := range s.sites {
		if site.LicenseKey == licenseKey {
			out = append(out, *site)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (s *MemoryStore) DeactivateAllSites(_ context.Context, licenseKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, site := range s.sites {
		if site.LicenseKey == licenseKey && site.Status == SiteActive {
			site.Status = SiteDeactivated
			now := site.LastSeenAt
			site.DeactivatedAt = &now
		}
	}
	return nil
}

func (s *MemoryStore) UpsertInstall(_ context.Context, inst *Install) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := siteKey(inst.LicenseKey, inst.SiteSignature)
	if existing, ok := s.installs[key]; ok {
		existing.SiteURL = inst.SiteURL
		existing.ClientVersion = inst.ClientVersion
		existing.LastSeenAt = inst.LastSeenAt
		return nil
	}
	cp := *inst
	s.installs[key] = &cp
	return nil
}

func statusIn(status LicenseStatus, statuses []LicenseStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
