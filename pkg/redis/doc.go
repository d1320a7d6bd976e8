// Package redis wraps go-redis connection setup with env configuration,
// startup retries, and a healthcheck closure for readiness probes.
package redis
