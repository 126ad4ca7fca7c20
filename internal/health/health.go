// Package health defines the minimal contracts used by background health
// checkers and the health endpoint.
package health

import "context"

// HealthPinger is implemented by dependencies that can verify their own
// connectivity with a single cheap probe.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// HealthChecker reports a cached, non-blocking health status.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
}
