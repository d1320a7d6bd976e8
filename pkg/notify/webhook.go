package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// WebhookConfig configures the outbound HTTP forwarder.
type WebhookConfig struct {
	EndpointURL string        `env:"NOTIFY_WEBHOOK_URL"`                     // EndpointURL receives issuance events as JSON POSTs; empty disables the channel.
	Timeout     time.Duration `env:"NOTIFY_WEBHOOK_TIMEOUT" envDefault:"5s"` // Timeout bounds each delivery attempt.
}

// WebhookForwarder POSTs issuance events to a configured endpoint.
type WebhookForwarder struct {
	url    string
	client *http.Client
}

// NewWebhookForwarder creates the outbound HTTP channel.
func NewWebhookForwarder(cfg WebhookConfig) (*WebhookForwarder, error) {
	if cfg.EndpointURL == "" {
		return nil, ErrMissingEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookForwarder{
		url:    cfg.EndpointURL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// ForwardIssuance delivers one event. Non-2xx responses count as failures so
// the fan-out layer logs them.
func (f *WebhookForwarder) ForwardIssuance(ctx context.Context, iss Issuance) error {
	body, err := json.Marshal(iss)
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Join(ErrDeliveryFailed, fmt.Errorf("endpoint answered %d", resp.StatusCode))
	}
	return nil
}
