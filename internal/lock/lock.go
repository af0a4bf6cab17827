// Package lock provides a per-key single-flight latch. The Redis
// implementation makes the guarantee hold across processes and page reloads,
// not just within one in-memory flag.
package lock

import (
	"context"
	"time"
)

// Locker is a single-flight latch keyed by an arbitrary string.
// Acquire reports false when another holder already owns the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
