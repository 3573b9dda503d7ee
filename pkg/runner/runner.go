package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
)

// Searcher solves one task. *runtime.Engine and the recoma facade satisfy it.
type Searcher interface {
	Search(ctx context.Context, task *domain.Task) (*domain.Result, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, task *domain.Task) (*domain.Result, error)

func (f SearcherFunc) Search(ctx context.Context, task *domain.Task) (*domain.Result, error) {
	return f(ctx, task)
}

// Runner fans tasks out to a Searcher.
type Runner struct {
	searcher Searcher
	workers  int
	store    ports.ResultStore
	resume   bool
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
	onResult func(*domain.Result)

	mu sync.Mutex
}

// New creates a Runner with one worker and no persistence.
func New(s Searcher, opts ...Option) *Runner {
	r := &Runner{
		searcher: s,
		workers:  1,
		lockTTL:  DefaultLockTTL,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Batch is the outcome of Run. Results keep the input order; skipped tasks are absent.
type Batch struct {
	Results []*domain.Result
	// Skipped lists tasks claimed by another worker.
	Skipped []string
	// Resumed lists tasks whose stored result was reused instead of searched. Their
	// results are part of Results.
	Resumed []string
}

type taskState int

const (
	searched taskState = iota
	resumed
	skipped
)

// Run solves every task. It returns early only when ctx is cancelled, in which case the
// batch holds whatever finished before.
func (r *Runner) Run(ctx context.Context, tasks []*domain.Task) (*Batch, error) {
	results := make([]*domain.Result, len(tasks))
	states := make([]taskState, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, task := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, state, err := r.solve(gctx, task)
			if err != nil {
				return err
			}
			results[i], states[i] = res, state
			if res != nil && r.onResult != nil {
				r.mu.Lock()
				r.onResult(res)
				r.mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	batch := &Batch{}
	for i, task := range tasks {
		switch {
		case states[i] == skipped:
			batch.Skipped = append(batch.Skipped, task.ID)
		case results[i] != nil:
			batch.Results = append(batch.Results, results[i])
			if states[i] == resumed {
				batch.Resumed = append(batch.Resumed, task.ID)
			}
		}
	}
	return batch, err
}

// solve runs one task. Only context errors are returned; everything else becomes a
// failed result or a skip.
func (r *Runner) solve(ctx context.Context, task *domain.Task) (*domain.Result, taskState, error) {
	log := r.logger.With("task", task.ID)

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, "task:"+task.ID, r.lockTTL)
		if errors.Is(err, ports.ErrLockHeld) {
			log.Info("task claimed by another worker, skipping")
			return nil, skipped, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, skipped, ctx.Err()
			}
			log.Error("could not claim task, skipping", "err", err)
			return nil, skipped, nil
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("could not release task lock", "err", err)
			}
		}()
	}

	if r.store != nil && r.resume {
		if res, err := r.store.Load(ctx, task.ID); err == nil {
			log.Debug("reusing stored result")
			return res, resumed, nil
		} else if !errors.Is(err, domain.ErrResultNotFound) {
			log.Warn("could not load stored result", "err", err)
		}
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, searched, err
		}
	}

	res, err := r.searcher.Search(ctx, task)
	if err != nil && ctx.Err() != nil {
		return nil, searched, ctx.Err()
	}
	if res == nil {
		res = &domain.Result{Task: task, Outcome: domain.OutcomeFailed}
	}
	if err != nil {
		res.Outcome = domain.OutcomeFailed
		res.Error = err
		log.Error("task failed", "err", err)
	}

	if r.store != nil {
		if err := r.store.Save(ctx, res); err != nil {
			log.Error("could not persist result", "err", err)
		}
	}
	return res, searched, nil
}
