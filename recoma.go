package recoma

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/recoma/internal/logging"
	"github.com/aretw0/recoma/internal/runtime"
	"github.com/aretw0/recoma/pkg/config"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
	"github.com/aretw0/recoma/pkg/runner"
)

// Engine is the high-level entry point for the recoma library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime    *runtime.Engine
	handlers   *registry.Registry
	components *config.Components
	workers    int
	logger     *slog.Logger
}

type options struct {
	logger      *slog.Logger
	hooks       domain.SearchHooks
	tracer      trace.TracerProvider
	outputDir   string
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*options)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.SearchHooks) Option {
	return func(o *options) {
		o.hooks = o.hooks.Merge(hooks)
	}
}

// WithTracerProvider enables OpenTelemetry spans for searches and dispatches.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = tp
	}
}

// WithOutputDir is where renderers write popped trees.
func WithOutputDir(dir string) Option {
	return func(o *options) {
		o.outputDir = dir
	}
}

// WithPolicies appends early-stopping policies after the configured ones.
func WithPolicies(p ...ports.StoppingPolicy) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithPolicies(p...))
	}
}

// WithAnswerer replaces the answer extractor.
func WithAnswerer(a ports.Answerer) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithAnswerer(a))
	}
}

// WithHardCap overrides the iteration cap.
func WithHardCap(n int) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithHardCap(n))
	}
}

// WithRenderers adds renderers. They only run when WithOutputDir is set.
func WithRenderers(r ...ports.Renderer) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, func(e *runtime.Engine) {
			if o.outputDir != "" {
				runtime.WithRenderers(o.outputDir, r...)(e)
			}
		})
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New loads the configuration file at path and builds the engine it describes.
func New(path string, opts ...Option) (*Engine, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig builds the engine described by cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Engine, error) {
	o := newOptions(opts)
	buildOpts := []config.BuildOption{
		config.WithLogger(o.logger),
		config.WithHooks(o.hooks),
		config.WithTracerProvider(o.tracer),
		config.WithEngineOptions(o.runtimeOpts...),
	}
	if o.outputDir != "" {
		buildOpts = append(buildOpts, config.WithOutputDir(o.outputDir))
	}
	c, err := config.Build(cfg, buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return &Engine{
		runtime:    c.Engine,
		handlers:   c.Handlers,
		components: c,
		workers:    c.Workers,
		logger:     o.logger,
	}, nil
}

// NewFromRegistry wires an engine around handlers built in code, for embedding without a
// configuration file. The start handler must be registered.
func NewFromRegistry(handlers *registry.Registry, start string, opts ...Option) (*Engine, error) {
	if _, ok := handlers.Lookup(start); !ok {
		return nil, fmt.Errorf("start handler %q is not registered", start)
	}
	o := newOptions(opts)
	runtimeOpts := append([]runtime.EngineOption{
		runtime.WithLogger(o.logger),
		runtime.WithLifecycleHooks(o.hooks),
		runtime.WithTracerProvider(o.tracer),
	}, o.runtimeOpts...)
	return &Engine{
		runtime:  runtime.NewEngine(handlers, start, runtimeOpts...),
		handlers: handlers,
		logger:   o.logger,
	}, nil
}

// Search solves one task. See the runtime for outcome semantics: exhaustion and the hard
// cap are not errors, a fatal handler error is.
func (e *Engine) Search(ctx context.Context, task *domain.Task) (*domain.Result, error) {
	if task == nil {
		return nil, errors.New("task is required")
	}
	return e.runtime.Search(ctx, task)
}

// Solve searches a free-text question. The question is sanitized first.
func (e *Engine) Solve(ctx context.Context, question string) (*domain.Result, error) {
	question, err := runner.SanitizeInput(question)
	if err != nil {
		return nil, err
	}
	return e.Search(ctx, &domain.Task{ID: uuid.NewString(), Question: question})
}

// Run solves tasks with the configured worker count, store and locker. Extra options
// are applied last.
func (e *Engine) Run(ctx context.Context, tasks []*domain.Task, opts ...runner.Option) (*runner.Batch, error) {
	runOpts := []runner.Option{runner.WithWorkers(e.workers), runner.WithLogger(e.logger)}
	if store := e.Store(); store != nil {
		runOpts = append(runOpts, runner.WithStore(store))
	}
	if e.components != nil && e.components.Locker != nil {
		runOpts = append(runOpts, runner.WithLocker(e.components.Locker, 0))
	}
	return runner.New(e, append(runOpts, opts...)...).Run(ctx, tasks)
}

// Handlers returns the registered handler names, sorted.
func (e *Engine) Handlers() []string {
	return e.handlers.Names()
}

// Store is the configured result store, or nil.
func (e *Engine) Store() ports.ResultStore {
	if e.components == nil {
		return nil
	}
	return e.components.Store
}

// Reader is the configured dataset reader, or nil.
func (e *Engine) Reader() ports.TaskReader {
	if e.components == nil {
		return nil
	}
	return e.components.Reader
}

// Close releases store connections.
func (e *Engine) Close() error {
	if e.components == nil {
		return nil
	}
	return e.components.Close()
}
