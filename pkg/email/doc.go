// Package email sends transactional email through Postmark, with a
// development sender that writes messages to disk instead.
//
// The service uses it as one leg of the out-of-band notification channel:
// issued license keys are delivered by email only, never in HTTP responses.
package email
