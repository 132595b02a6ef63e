package lock

import (
	"context"
	"time"
)

// Locker hands out short-lived exclusive leases shared by every process of
// the deployment.
type Locker interface {
	// TryLock does not wait: ok is false when someone else holds the lease.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
