package ports

import "context"

// HealthChecker probes one external dependency for the deep health endpoint.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g. "postgresql", "redis").
	Name() string
}
