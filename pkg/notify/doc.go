// Package notify forwards license issuance events to downstream channels.
//
// Delivery is strictly best-effort: the entitlement mutation that triggered
// the event has already been committed, so forwarding failures are logged
// and swallowed, never propagated to the caller. The email channel is the
// only place an issued key is disclosed to the customer.
package notify
