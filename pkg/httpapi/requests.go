package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateLicenseRequest is the payload of the validation endpoint. The site
// URL is optional; without one the call is a pure status check. Action
// defaults to register, which matches clients that activate on first check.
type ValidateLicenseRequest struct {
	LicenseKey    string `json:"license_key" validate:"required"`
	SiteURL       string `json:"site_url,omitempty"`
	InstallPath   string `json:"install_path,omitempty"`
	ClientVersion string `json:"client_version,omitempty"`
	Action        string `json:"action,omitempty" validate:"omitempty,oneof=status register"`
}

func (req *ValidateLicenseRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

// TrialRequest is the payload of the trial signup endpoint.
type TrialRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty" validate:"omitempty,max=200"`
}

func (req *TrialRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

// SiteRequest is the payload of the site register and release endpoints.
type SiteRequest struct {
	LicenseKey  string `json:"license_key" validate:"required"`
	SiteURL     string `json:"site_url" validate:"required"`
	InstallPath string `json:"install_path,omitempty"`
}

func (req *SiteRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

// StatusChangeRequest is the payload of the admin status override endpoint.
type StatusChangeRequest struct {
	Status string `json:"status" validate:"required,oneof=trial active cancelled expired"`
}

func (req *StatusChangeRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

// bindError rewrites validator errors into a single client-facing message.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0]
		switch field.Tag() {
		case "required":
			return field.Field() + " is required"
		case "email":
			return field.Field() + " must be a valid email address"
		case "oneof":
			return field.Field() + " must be one of: " + field.Param()
		default:
			return field.Field() + " is invalid"
		}
	}
	return "invalid request payload"
}
