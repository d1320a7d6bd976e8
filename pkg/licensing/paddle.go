package licensing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements PaymentProvider for Paddle Billing webhooks.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle provider with a verifier bound to the
// configured webhook secret.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}
	if config.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
	}, nil
}

// ParseWebhook verifies the Paddle-Signature header against the raw body and
// normalizes the payload into an Event. The body must be passed exactly as
// received; any re-serialization breaks the signature.
func (p *PaddleProvider) ParseWebhook(r *http.Request, body []byte) (*Event, error) {
	r.Body = io.NopCloser(bytes.NewReader(body))
	valid, err := p.verifier.Verify(r)
	if err != nil {
		return nil, errors.Join(ErrWebhookRejected, err)
	}
	if !valid {
		return nil, ErrWebhookRejected
	}

	var paddleEvent struct {
		EventID    string         `json:"event_id"`
		EventType  string         `json:"event_type"`
		OccurredAt string         `json:"occurred_at"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &paddleEvent); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	event := &Event{
		Type:    mapPaddleEventType(paddleEvent.EventType),
		EventID: paddleEvent.EventID,
		Raw:     body,
	}
	if ts, err := time.Parse(time.RFC3339, paddleEvent.OccurredAt); err == nil {
		event.OccurredAt = ts
	}

	data := paddleEvent.Data

	if customer, ok := data["customer"].(map[string]any); ok {
		event.CustomerEmail, _ = customer["email"].(string)
		event.CustomerName, _ = customer["name"].(string)
	}
	if customData, ok := data["custom_data"].(map[string]any); ok {
		if event.CustomerEmail == "" {
			event.CustomerEmail, _ = customData["email"].(string)
		}
		if event.CustomerName == "" {
			event.CustomerName, _ = customData["name"].(string)
		}
	}

	if items, ok := data["items"].([]any); ok && len(items) > 0 {
		if item, ok := items[0].(map[string]any); ok {
			if priceID, ok := item["price_id"].(string); ok {
				event.PriceID = priceID
			}
			if price, ok := item["price"].(map[string]any); ok {
				if event.PriceID == "" {
					event.PriceID, _ = price["id"].(string)
				}
				if event.ProductName == "" {
					event.ProductName, _ = price["name"].(string)
				}
			}
			if product, ok := item["product"].(map[string]any); ok {
				if name, ok := product["name"].(string); ok && name != "" {
					event.ProductName = name
				}
			}
		}
	}

	return event, nil
}

// mapPaddleEventType maps Paddle event types to the normalized EventType.
// Unknown events come back as EventIgnored so the dispatcher acknowledges
// them without touching the store.
func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "transaction.completed":
		return EventPurchaseCompleted
	case "transaction.payment_succeeded", "subscription.payment_succeeded":
		return EventPaymentSucceeded
	case "subscription.canceled":
		return EventSubscriptionCancelled
	default:
		return EventIgnored
	}
}

var _ PaymentProvider = (*PaddleProvider)(nil)
