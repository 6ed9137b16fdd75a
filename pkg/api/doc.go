// Package api exposes suibased's HTTP surface: liveness/readiness probes,
// the Prometheus scrape endpoint, and admin endpoints for mutating a
// workdir's desired package set at runtime.
package api
