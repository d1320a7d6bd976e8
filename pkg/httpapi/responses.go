package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/dmitrymomot/licensekit/pkg/licensing"
)

// VerdictResponse is the body of every validation-family endpoint.
type VerdictResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`

	PlanType       string     `json:"plan_type,omitempty"`
	Status         string     `json:"status,omitempty"`
	CustomerName   string     `json:"customer_name,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	SiteLimit      *int64     `json:"site_limit,omitempty"`
	SitesActive    *int64     `json:"sites_active,omitempty"`
	SitesRemaining *int64     `json:"sites_remaining,omitempty"`
}

func newVerdictResponse(v *licensing.Verdict) VerdictResponse {
	resp := VerdictResponse{
		Success: v.Valid(),
		Code:    string(v.Code),
		Message: v.Message,
	}
	if v.Code == licensing.VerdictInvalid {
		return resp
	}
	resp.PlanType = string(v.PlanType)
	resp.Status = string(v.Status)
	resp.CustomerName = v.CustomerName
	resp.ExpiresAt = v.ExpiresAt
	limit, active, remaining := v.SiteLimit, v.SitesActive, v.SitesRemaining
	resp.SiteLimit = &limit
	resp.SitesActive = &active
	resp.SitesRemaining = &remaining
	return resp
}

// ErrorResponse is the generic failure body for non-validation endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}

// renderFailure answers a validation-family request that could not be
// served. The HTTP status stays 200; clients act on the success flag.
func renderFailure(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, ErrorResponse{Error: message})
}

// LicenseResponse is the admin-facing license representation. The key is
// included: the admin surface is the one place operators look keys up.
type LicenseResponse struct {
	ID            string     `json:"id"`
	LicenseKey    string     `json:"license_key"`
	PlanType      string     `json:"plan_type"`
	Status        string     `json:"status"`
	CustomerEmail string     `json:"customer_email"`
	CustomerName  string     `json:"customer_name,omitempty"`
	SiteLimit     int64      `json:"site_limit"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

func newLicenseResponse(lic *licensing.License) LicenseResponse {
	return LicenseResponse{
		ID:            lic.ID.String(),
		LicenseKey:    lic.Key,
		PlanType:      string(lic.PlanType),
		Status:        string(lic.Status),
		CustomerEmail: lic.CustomerEmail,
		CustomerName:  lic.CustomerName,
		SiteLimit:     lic.SiteLimit,
		ExpiresAt:     lic.ExpiresAt,
		CreatedAt:     lic.CreatedAt,
		CancelledAt:   lic.CancelledAt,
	}
}

// SiteResponse is one registered site in a usage report.
type SiteResponse struct {
	SiteSignature string     `json:"site_signature"`
	SiteURL       string     `json:"site_url"`
	Status        string     `json:"status"`
	RegisteredAt  time.Time  `json:"registered_at"`
	LastSeenAt    time.Time  `json:"last_seen_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// UsageResponse is the body of the usage endpoint. The caller already holds
// the key, so it is not echoed back.
type UsageResponse struct {
	Success     bool           `json:"success"`
	PlanType    string         `json:"plan_type"`
	Status      string         `json:"status"`
	SiteLimit   int64          `json:"site_limit"`
	SitesActive int64          `json:"sites_active"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Sites       []SiteResponse `json:"sites"`
}

func newUsageResponse(report *licensing.UsageReport) UsageResponse {
	resp := UsageResponse{
		Success:     true,
		PlanType:    string(report.License.PlanType),
		Status:      string(report.License.Status),
		SiteLimit:   report.License.SiteLimit,
		SitesActive: report.SitesActive,
		ExpiresAt:   report.License.ExpiresAt,
		Sites:       make([]SiteResponse, 0, len(report.Sites)),
	}
	for _, site := range report.Sites {
		resp.Sites = append(resp.Sites, SiteResponse{
			SiteSignature: site.SiteSignature,
			SiteURL:       site.SiteURL,
			Status:        string(site.Status),
			RegisteredAt:  site.RegisteredAt,
			LastSeenAt:    site.LastSeenAt,
			DeactivatedAt: site.DeactivatedAt,
		})
	}
	return resp
}

// TrialResponse acknowledges a trial signup. The license key is absent by
// design of the trial flow: it travels out of band.
type TrialResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	PlanType  string    `json:"plan_type"`
	ExpiresAt time.Time `json:"expires_at"`
}
