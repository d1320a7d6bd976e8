package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/dmitrymomot/licensekit/pkg/licensing"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// WebhookHandler receives billing provider deliveries. The body is read raw
// and handed to the provider untouched; signature schemes sign the exact
// bytes on the wire.
type WebhookHandler struct {
	svc      *licensing.Service
	provider licensing.PaymentProvider
	log      *slog.Logger
}

// NewWebhookHandler creates the billing webhook handler.
func NewWebhookHandler(svc *licensing.Service, provider licensing.PaymentProvider, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		svc:      svc,
		provider: provider,
		log:      log.With(slog.String("handler", "webhook")),
	}
}

// Handle verifies, normalizes and applies one webhook delivery.
//
// Status codes steer the provider's retry machinery: 400 for rejected or
// malformed deliveries (retrying cannot help), 500 for infrastructure
// failures (the provider should redeliver), 200 for everything the service
// processed or deliberately ignored.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}

	event, err := h.provider.ParseWebhook(r, body)
	if err != nil {
		if errors.Is(err, licensing.ErrWebhookRejected) {
			h.log.WarnContext(r.Context(), "webhook rejected", slog.Any("error", err))
			renderError(w, r, http.StatusBadRequest, "signature verification failed")
			return
		}
		h.log.WarnContext(r.Context(), "webhook payload malformed", slog.Any("error", err))
		renderError(w, r, http.StatusBadRequest, "malformed payload")
		return
	}

	outcome, err := h.svc.HandleWebhook(r.Context(), event)
	if err != nil {
		h.log.ErrorContext(r.Context(), "webhook processing failed",
			slog.String("event_id", event.EventID), slog.Any("error", err))
		renderError(w, r, http.StatusInternalServerError, "processing failed")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]any{"success": true, "outcome": string(outcome)})
}
