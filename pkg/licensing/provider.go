package licensing

import (
	"net/http"
	"time"
)

// EventType is the normalized billing event kind the service acts on.
// Provider-specific event names are mapped to one of these before they reach
// the webhook dispatch logic.
type EventType string

const (
	// EventPurchaseCompleted signals a finished one-time checkout or the
	// first charge of a new subscription.
	EventPurchaseCompleted EventType = "purchase_completed"
	// EventPaymentSucceeded signals a successful recurring charge on an
	// existing subscription.
	EventPaymentSucceeded EventType = "payment_succeeded"
	// EventSubscriptionCancelled signals the subscription was cancelled by
	// the customer or the provider.
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	// EventIgnored marks events the service acknowledges without acting on.
	EventIgnored EventType = "ignored"
)

// Event is a billing notification normalized across payment providers.
type Event struct {
	Type          EventType
	EventID       string
	OccurredAt    time.Time
	CustomerEmail string
	CustomerName  string
	PriceID       string
	ProductName   string
	Raw           []byte
}

// PaymentProvider verifies and parses provider webhook deliveries.
// ParseWebhook must reject requests with a missing or invalid signature with
// ErrWebhookRejected and syntactically broken payloads with ErrMalformedEvent.
type PaymentProvider interface {
	ParseWebhook(r *http.Request, body []byte) (*Event, error)
}
