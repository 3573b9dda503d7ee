package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/recoma/pkg/ports"
)

// Locker implements ports.DistributedLocker for a single process.
type Locker struct {
	mu   sync.Mutex
	held map[string]lease
}

type lease struct {
	token   string
	expires time.Time
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]lease)}
}

// Lock acquires key until ttl elapses or the returned UnlockFunc is called.
func (l *Locker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
		return nil, ports.ErrLockHeld
	}
	token := uuid.NewString()
	l.held[key] = lease{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
