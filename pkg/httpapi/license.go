package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/dmitrymomot/licensekit/pkg/licensing"
)

// LicenseHandler serves the public license API: validation, explicit site
// registration and release, trial signup and usage lookups.
type LicenseHandler struct {
	svc *licensing.Service
	log *slog.Logger
}

// NewLicenseHandler creates the public license API handler.
func NewLicenseHandler(svc *licensing.Service, log *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		svc: svc,
		log: log.With(slog.String("handler", "license")),
	}
}

// Routes mounts the public license endpoints.
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Timeout(15 * time.Second))

	r.Post("/license/validate", h.Validate)
	r.Post("/license/sites", h.RegisterSite)
	r.Delete("/license/sites", h.ReleaseSite)
	r.Get("/license/{key}/usage", h.Usage)
	r.Post("/trial", h.StartTrial)

	return r
}

// Validate answers a license check. The response status is always 200; the
// body carries the verdict. Store outages come back as a generic retryable
// failure without leaking whether the key exists.
func (h *LicenseHandler) Validate(w http.ResponseWriter, r *http.Request) {
	req := &ValidateLicenseRequest{}
	if err := render.Bind(r, req); err != nil {
		renderFailure(w, r, bindError(err))
		return
	}

	verdict, err := h.svc.Validate(r.Context(), licensing.ValidateRequest{
		LicenseKey:    req.LicenseKey,
		SiteURL:       req.SiteURL,
		InstallPath:   req.InstallPath,
		ClientVersion: req.ClientVersion,
		Action:        licensing.Action(req.Action),
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "validation failed", slog.Any("error", err))
		renderFailure(w, r, "validation temporarily unavailable, try again")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, newVerdictResponse(verdict))
}

// RegisterSite explicitly claims a site slot for the license.
func (h *LicenseHandler) RegisterSite(w http.ResponseWriter, r *http.Request) {
	req := &SiteRequest{}
	if err := render.Bind(r, req); err != nil {
		renderFailure(w, r, bindError(err))
		return
	}

	verdict, err := h.svc.RegisterSite(r.Context(), licensing.ValidateRequest{
		LicenseKey:  req.LicenseKey,
		SiteURL:     req.SiteURL,
		InstallPath: req.InstallPath,
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "site registration failed", slog.Any("error", err))
		renderFailure(w, r, "registration temporarily unavailable, try again")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, newVerdictResponse(verdict))
}

// ReleaseSite frees a site slot so the quota can be reused elsewhere.
func (h *LicenseHandler) ReleaseSite(w http.ResponseWriter, r *http.Request) {
	req := &SiteRequest{}
	if err := render.Bind(r, req); err != nil {
		renderFailure(w, r, bindError(err))
		return
	}

	err := h.svc.UnregisterSite(r.Context(), req.LicenseKey, req.SiteURL, req.InstallPath)
	switch {
	case err == nil:
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]any{"success": true, "message": "site released"})
	case errors.Is(err, licensing.ErrSiteNotFound):
		renderFailure(w, r, "site is not registered for this license")
	case errors.Is(err, licensing.ErrLicenseNotFound):
		renderFailure(w, r, "license key not found")
	default:
		h.log.ErrorContext(r.Context(), "site release failed", slog.Any("error", err))
		renderFailure(w, r, "release temporarily unavailable, try again")
	}
}

// Usage reports the license state and every site registered against it.
func (h *LicenseHandler) Usage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	report, err := h.svc.Usage(r.Context(), key)
	switch {
	case err == nil:
		render.Status(r, http.StatusOK)
		render.JSON(w, r, newUsageResponse(report))
	case errors.Is(err, licensing.ErrLicenseNotFound), errors.Is(err, licensing.ErrMissingLicenseKey):
		renderFailure(w, r, "license key not found")
	default:
		h.log.ErrorContext(r.Context(), "usage lookup failed", slog.Any("error", err))
		renderFailure(w, r, "usage temporarily unavailable, try again")
	}
}

// StartTrial issues a trial license. The key never appears in the response;
// it reaches the customer through the configured notification channels.
func (h *LicenseHandler) StartTrial(w http.ResponseWriter, r *http.Request) {
	req := &TrialRequest{}
	if err := render.Bind(r, req); err != nil {
		renderFailure(w, r, bindError(err))
		return
	}

	result, err := h.svc.StartTrial(r.Context(), req.Email, req.Name)
	switch {
	case err == nil:
		render.Status(r, http.StatusOK)
		render.JSON(w, r, TrialResponse{
			Success:   true,
			Message:   "trial started, the license key is on its way to your inbox",
			PlanType:  string(result.PlanType),
			ExpiresAt: result.ExpiresAt,
		})
	case errors.Is(err, licensing.ErrTrialExists):
		// The error text names the original issuance date.
		renderFailure(w, r, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "trial signup failed", slog.Any("error", err))
		renderFailure(w, r, "trial signup temporarily unavailable, try again")
	}
}
