package licensing

import "errors"

var (
	ErrLicenseNotFound   = errors.New("license not found")
	ErrDuplicateKey      = errors.New("license key already exists")
	ErrSiteNotFound      = errors.New("site registration not found")
	ErrLicenseInactive   = errors.New("license is not active")
	ErrQuotaExceeded     = errors.New("site limit exceeded for license")
	ErrTrialExists       = errors.New("a trial was already issued for this email")
	ErrKeyGenExhausted   = errors.New("could not generate a unique license key")
	ErrWebhookRejected   = errors.New("webhook signature verification failed")
	ErrMalformedEvent    = errors.New("malformed webhook event payload")
	ErrStoreUnavailable  = errors.New("entitlement store unavailable")
	ErrMissingSiteURL    = errors.New("site URL is required for this action")
	ErrMissingLicenseKey = errors.New("license key is required")
)
