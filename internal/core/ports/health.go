package ports

import "context"

// HealthChecker reports whether a backing store can serve wallet traffic.
// GET /health pings every configured checker and degrades to 503 on any error.
type HealthChecker interface {
	// Ping returns nil when the store is reachable and usable, e.g. the event
	// store schema is in place.
	Ping(ctx context.Context) error
	// Name keys the dependency in the health report: "postgresql" or "redis".
	Name() string
}
