package licensing

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/licensekit/pkg/plans"
)

// LicenseStatus represents the current state of a license.
type LicenseStatus string

const (
	StatusTrial     LicenseStatus = "trial"
	StatusActive    LicenseStatus = "active"
	StatusCancelled LicenseStatus = "cancelled"
	StatusExpired   LicenseStatus = "expired"
)

// Operational reports whether the status still grants feature access.
func (s LicenseStatus) Operational() bool {
	return s == StatusTrial || s == StatusActive
}

// nonTerminalStatuses are the statuses a renewal or duplicate-purchase
// lookup matches against.
var nonTerminalStatuses = []LicenseStatus{StatusTrial, StatusActive}

// License is an entitlement record granting feature access under a plan type
// and site quota. The key is generated once and never reused; rows are never
// physically deleted, status transitions retire them instead.
type License struct {
	ID            uuid.UUID
	Key           string
	PlanType      plans.Type
	Status        LicenseStatus
	CustomerEmail string
	CustomerName  string
	SiteLimit     int64 // plans.Unlimited (-1) means no ceiling
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CancelledAt   *time.Time
}

// Unlimited reports whether the license has no site ceiling.
func (l *License) Unlimited() bool {
	return l.SiteLimit == plans.Unlimited
}

// ExpiredAt reports whether the license's expiry timestamp has passed at the
// given time. Licenses without an expiry never expire.
func (l *License) ExpiredAt(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// SiteStatus represents the state of one site registration.
type SiteStatus string

const (
	SiteActive      SiteStatus = "active"
	SiteDeactivated SiteStatus = "deactivated"
)

// SiteUsage records one site registered against a license. The pair
// (LicenseKey, SiteSignature) is unique; deactivation is a soft delete.
type SiteUsage struct {
	LicenseKey    string
	SiteSignature string
	SiteURL       string
	Status        SiteStatus
	RegisteredAt  time.Time
	LastSeenAt    time.Time
	DeactivatedAt *time.Time
}

// Install is a best-effort heartbeat record for one installation. It never
// affects validation verdicts.
type Install struct {
	LicenseKey    string
	SiteSignature string
	SiteURL       string
	ClientVersion string
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
}

// VerdictCode classifies a validation outcome.
type VerdictCode string

const (
	VerdictValid         VerdictCode = "valid"
	VerdictInvalid       VerdictCode = "invalid"
	VerdictInactive      VerdictCode = "inactive"
	VerdictQuotaExceeded VerdictCode = "quota_exceeded"
)

// Verdict is the structured result of a validation call. License details are
// populated only for valid verdicts.
type Verdict struct {
	Code    VerdictCode
	Message string

	PlanType     plans.Type
	Status       LicenseStatus
	CustomerName string
	ExpiresAt    *time.Time
	SiteLimit    int64
	SitesActive  int64
	// SitesRemaining is -1 for unlimited plans.
	SitesRemaining int64
}

// Valid reports whether the verdict grants access.
func (v *Verdict) Valid() bool {
	return v.Code == VerdictValid
}

// Action selects what a validation call should do with the supplied site.
type Action string

const (
	// ActionStatus checks the license without touching site usage.
	ActionStatus Action = "status"
	// ActionRegister admits the calling site under the quota rules.
	ActionRegister Action = "register"
)

// ValidateRequest carries the inputs of one validation call.
type ValidateRequest struct {
	LicenseKey    string
	SiteURL       string
	InstallPath   string
	ClientVersion string
	Action        Action
}
