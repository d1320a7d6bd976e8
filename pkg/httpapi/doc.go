// Package httpapi exposes the entitlement service over HTTP: the billing
// webhook endpoint, the public license validation API and a secret-guarded
// admin surface. Validation responses always come back with status 200; the
// success flag and verdict code inside the body carry the outcome, so
// clients never have to tell an HTTP failure from a licensing one.
package httpapi
