// Package licensing implements the license and entitlement service: webhook
// event processing for the payment provider, license key issuance, validation
// with per-license site quotas, and trial lifecycle management.
//
// The Service is the single write path for license and site-usage state.
// Webhook processing is idempotent under the provider's at-least-once
// delivery: renewal and cancellation look records up by customer identity
// and plan type, and "already in target status" is a no-op success rather
// than an error. Site admission checks run existence-before-count so a
// previously registered site is never locked out by a full quota.
package licensing
