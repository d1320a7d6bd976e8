// Package licensekey generates human-transcribable license keys.
//
// Keys consist of a plan prefix followed by random uppercase alphanumeric
// characters rendered in 4-character groups, e.g. "SUB-7GK2-X9QM-4TRV-B8ZC".
// The generator does not guarantee global uniqueness; callers rely on the
// store's unique constraint and retry on duplicate-key failures.
package licensekey
