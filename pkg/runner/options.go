package runner

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed worker can hold a task.
const DefaultLockTTL = 10 * time.Minute

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithWorkers sets the number of concurrent searches. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

// WithStore persists every result as soon as it is produced.
func WithStore(store ports.ResultStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithResume reuses results already present in the store instead of searching again.
// It has no effect without WithStore.
func WithResume(resume bool) Option {
	return func(r *Runner) {
		r.resume = resume
	}
}

// WithLocker claims each task before searching it. Tasks held by another worker are
// skipped.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(r *Runner) {
		r.locker = locker
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

// WithRateLimit caps how many searches start per second, e.g. to stay under a provider
// quota.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(r *Runner) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOnResult is called once per finished task, from the worker goroutine.
func WithOnResult(fn func(*domain.Result)) Option {
	return func(r *Runner) {
		r.onResult = fn
	}
}
