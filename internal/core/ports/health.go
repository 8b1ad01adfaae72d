package ports

import "context"

// HealthChecker verifies a dependency is reachable.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
