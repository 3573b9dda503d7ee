package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/recoma/internal/logging"
	"github.com/aretw0/recoma/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// LogOptions are the logging flags shared by every command.
type LogOptions struct {
	Debug   bool
	LogFile string
}

// createLogger configures the application logger.
// Without --debug only warnings reach stderr; --log-file adds a JSON file that always
// receives debug records.
func createLogger(opts LogOptions) (*slog.Logger, io.Closer, error) {
	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	if opts.LogFile != "" {
		return logging.NewWithFile(level, opts.LogFile)
	}
	return logging.New(level), io.NopCloser(nil), nil
}

func createDebugHooks(logger *slog.Logger) domain.SearchHooks {
	return domain.SearchHooks{
		OnPop: func(e domain.PopEvent) {
			logger.Debug("Pop", "task", e.TaskID, "iteration", e.Iteration, "score", e.Score, "depth", e.Depth, "frontier", e.Frontier)
		},
		OnPrune: func(e domain.PruneEvent) {
			logger.Debug("Prune", "task", e.TaskID, "reason", e.Reason, "policy", e.Policy, "kind", e.Kind, "depth", e.Depth)
		},
		OnFinish: func(e domain.FinishEvent) {
			logger.Debug("Finish", "task", e.TaskID, "outcome", e.Outcome, "iterations", e.Iterations)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}
