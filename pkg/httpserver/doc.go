// Package httpserver wraps net/http's Server with graceful shutdown, signal
// handling, env-driven configuration, and a healthcheck handler usable for
// both liveness and readiness probes.
package httpserver
