// Package sitesig computes deterministic signatures identifying a single
// installation of the licensed product.
//
// A signature is derived from the site's domain, URL path, and the install
// path on disk. It is stable across repeated calls from the same install and
// independent of which process computes it, which makes it usable as the
// quota-counting unit for per-license site limits.
package sitesig
