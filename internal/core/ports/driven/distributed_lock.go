package driven

import (
	"context"
	"time"
)

// DistributedLock serializes work on one resource across instances.
// The file service holds a lock per file while parsing it.
type DistributedLock interface {
	// Acquire attempts to take a named lock that expires after ttl.
	// Returns false without error when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops a named lock held by this instance.
	// Safe to call when the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
