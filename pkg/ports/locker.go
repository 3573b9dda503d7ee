package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned by a DistributedLocker when another worker owns the key.
var ErrLockHeld = errors.New("lock held by another worker")

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates batch workers across processes so each task is
// solved by exactly one of them.
type DistributedLocker interface {
	// Lock tries to acquire key for ttl.
	// Returns ErrLockHeld if the key is taken. The UnlockFunc MUST be called to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
