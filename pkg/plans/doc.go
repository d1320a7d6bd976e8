// Package plans maps payment-provider catalog identifiers to license terms.
//
// Resolution runs in two tiers: an exact match on the provider price ID, then
// a substring match against product naming conventions. The fallback tier
// exists because the provider catalog is managed outside this system and
// price IDs drift, while product names follow stable conventions.
// An identifier that resolves through neither tier yields ErrPlanNotResolved
// and the caller must drop the event without creating a license.
package plans
