package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/licensekit/pkg/licensing"
)

// Config holds the HTTP API settings that do not belong to any one handler.
type Config struct {
	AdminSecret string `env:"ADMIN_SECRET"`
}

// RouterOption customizes the assembled router.
type RouterOption func(*routerOptions)

type routerOptions struct {
	health http.HandlerFunc
}

// WithHealthHandler mounts the given handler at /health.
func WithHealthHandler(h http.HandlerFunc) RouterOption {
	return func(o *routerOptions) { o.health = h }
}

// NewRouter assembles the complete HTTP surface: the billing webhook, the
// public license API under /v1 and the admin surface under /admin.
func NewRouter(svc *licensing.Service, provider licensing.PaymentProvider, cfg Config, log *slog.Logger, opts ...RouterOption) http.Handler {
	options := &routerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	webhooks := NewWebhookHandler(svc, provider, log)
	r.Post("/webhooks/paddle", webhooks.Handle)

	r.Mount("/v1", NewLicenseHandler(svc, log).Routes())
	r.Mount("/admin", NewAdminHandler(svc, cfg.AdminSecret, log).Routes())

	if options.health != nil {
		r.Get("/health", options.health)
	}

	return r
}
