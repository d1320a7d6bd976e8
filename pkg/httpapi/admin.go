package httpapi

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/dmitrymomot/licensekit/pkg/licensing"
)

// AdminHandler serves the operator surface: license listing, usage resets
// and status overrides. Every route sits behind a shared-secret header.
type AdminHandler struct {
	svc    *licensing.Service
	secret string
	log    *slog.Logger
}

// NewAdminHandler creates the admin handler. An empty secret disables the
// whole surface; Routes then rejects every request.
func NewAdminHandler(svc *licensing.Service, secret string, log *slog.Logger) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		secret: secret,
		log:    log.With(slog.String("handler", "admin")),
	}
}

// Routes mounts the admin endpoints behind the secret check.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requireSecret)

	r.Get("/licenses", h.ListLicenses)
	r.Post("/licenses/{key}/reset-usage", h.ResetUsage)
	r.Post("/licenses/{key}/status", h.SetStatus)

	return r
}

func (h *AdminHandler) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get("X-Admin-Secret")
		if h.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			renderError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListLicenses pages through all licenses, newest first. Supports limit and
// offset query parameters.
func (h *AdminHandler) ListLicenses(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	licenses, err := h.svc.ListLicenses(r.Context(), limit, offset)
	if err != nil {
		h.log.ErrorContext(r.Context(), "license listing failed", slog.Any("error", err))
		renderError(w, r, http.StatusInternalServerError, "listing failed")
		return
	}

	out := make([]LicenseResponse, 0, len(licenses))
	for i := range licenses {
		out = append(out, newLicenseResponse(&licenses[i]))
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]any{"success": true, "licenses": out})
}

// ResetUsage deactivates every registered site on a license.
func (h *AdminHandler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	err := h.svc.ResetUsage(r.Context(), key)
	switch {
	case err == nil:
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]any{"success": true, "message": "site usage reset"})
	case errors.Is(err, licensing.ErrLicenseNotFound), errors.Is(err, licensing.ErrMissingLicenseKey):
		renderError(w, r, http.StatusNotFound, "license not found")
	default:
		h.log.ErrorContext(r.Context(), "usage reset failed", slog.Any("error", err))
		renderError(w, r, http.StatusInternalServerError, "reset failed")
	}
}

// SetStatus forces a license into the requested status.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	req := &StatusChangeRequest{}
	if err := render.Bind(r, req); err != nil {
		renderError(w, r, http.StatusBadRequest, bindError(err))
		return
	}

	lic, err := h.svc.SetStatus(r.Context(), key, licensing.LicenseStatus(req.Status))
	switch {
	case err == nil:
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]any{"success": true, "license": newLicenseResponse(lic)})
	case errors.Is(err, licensing.ErrLicenseNotFound), errors.Is(err, licensing.ErrMissingLicenseKey):
		renderError(w, r, http.StatusNotFound, "license not found")
	default:
		h.log.ErrorContext(r.Context(), "status change failed", slog.Any("error", err))
		renderError(w, r, http.StatusInternalServerError, "status change failed")
	}
}
