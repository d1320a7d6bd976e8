// Package pg bootstraps the PostgreSQL layer: pgx/v5 connection pooling with
// retry, goose schema migrations, a healthcheck closure for readiness probes,
// and helpers that classify common pgx/pgconn errors (not-found, duplicate
// key, foreign key violations) so callers never match on SQLSTATE strings.
package pg
