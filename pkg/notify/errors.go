package notify

import "errors"

var (
	ErrMissingEndpoint = errors.New("notification endpoint URL is required")
	ErrDeliveryFailed  = errors.New("notification delivery failed")
)
