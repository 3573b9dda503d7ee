package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/recoma/internal/logging"
	"github.com/aretw0/recoma/internal/presentation/graph"
	"github.com/aretw0/recoma/internal/runtime"
	"github.com/aretw0/recoma/pkg/adapters/badger"
	"github.com/aretw0/recoma/pkg/adapters/dataset"
	"github.com/aretw0/recoma/pkg/adapters/file"
	"github.com/aretw0/recoma/pkg/adapters/memory"
	"github.com/aretw0/recoma/pkg/adapters/process"
	"github.com/aretw0/recoma/pkg/adapters/redis"
	"github.com/aretw0/recoma/pkg/answer"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/handlers"
	"github.com/aretw0/recoma/pkg/persistence/middleware"
	"github.com/aretw0/recoma/pkg/policy"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/registry"
	"github.com/aretw0/recoma/pkg/render"
)

// Catalogs holds the factories used to turn records into components.
// Callers may register their own types before calling Build.
type Catalogs struct {
	Handlers   *registry.Catalog[ports.Handler]
	Generators *registry.Catalog[ports.Generator]
	Policies   *registry.Catalog[ports.StoppingPolicy]
	Answerers  *registry.Catalog[ports.Answerer]
	Renderers  *registry.Catalog[ports.Renderer]
	Readers    *registry.Catalog[ports.TaskReader]
}

// NewCatalogs returns catalogs populated with every built-in type, except the process
// generator, which Build registers once the tool allow-list is known.
func NewCatalogs(logger *slog.Logger) *Catalogs {
	c := &Catalogs{
		Handlers:   registry.NewCatalog[ports.Handler]("handler"),
		Generators: registry.NewCatalog[ports.Generator]("generator"),
		Policies:   registry.NewCatalog[ports.StoppingPolicy]("policy"),
		Answerers:  registry.NewCatalog[ports.Answerer]("answerer"),
		Renderers:  registry.NewCatalog[ports.Renderer]("renderer"),
		Readers:    registry.NewCatalog[ports.TaskReader]("reader"),
	}
	handlers.Register(c.Handlers, c.Generators, logger)
	policy.Register(c.Policies)
	answer.Register(c.Answerers)
	render.Register(c.Renderers)
	c.Renderers.Register("mermaid", func(params map[string]any) (ports.Renderer, error) {
		return graph.Renderer{}, registry.Decode(params, &struct{}{})
	})
	dataset.Register(c.Readers)
	return c
}

// Components is everything a configuration describes, ready to use.
type Components struct {
	Engine   *runtime.Engine
	Handlers *registry.Registry
	// Reader is nil when the config has no reader record.
	Reader ports.TaskReader
	// Store is nil when persistence is disabled.
	Store ports.ResultStore
	// Locker is set for stores that can coordinate several processes.
	Locker  ports.DistributedLocker
	Workers int

	closers []io.Closer
}

// Close releases store connections.
func (c *Components) Close() error {
	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}

type buildOptions struct {
	logger    *slog.Logger
	catalogs  *Catalogs
	outputDir string
	hooks     domain.SearchHooks
	tracer    trace.TracerProvider
	extra     []runtime.EngineOption
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithLogger is passed to the engine, the handlers and the badger store.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCatalogs replaces the built-in catalogs.
func WithCatalogs(c *Catalogs) BuildOption {
	return func(o *buildOptions) { o.catalogs = c }
}

// WithOutputDir enables the configured renderers, writing into dir.
func WithOutputDir(dir string) BuildOption {
	return func(o *buildOptions) { o.outputDir = dir }
}

// WithHooks installs search lifecycle hooks on the engine.
func WithHooks(h domain.SearchHooks) BuildOption {
	return func(o *buildOptions) { o.hooks = o.hooks.Merge(h) }
}

// WithTracerProvider is passed to the engine.
func WithTracerProvider(tp trace.TracerProvider) BuildOption {
	return func(o *buildOptions) { o.tracer = tp }
}

// WithEngineOptions are applied after the options derived from the config, so they
// override the hard cap and answerer and append policies and renderers.
func WithEngineOptions(opts ...runtime.EngineOption) BuildOption {
	return func(o *buildOptions) { o.extra = append(o.extra, opts...) }
}

// Graph describes the configured models for graph.GenerateMermaid.
func (c *Config) Graph() []graph.Model {
	models := make([]graph.Model, 0, len(c.Models))
	for name, record := range c.Models {
		typ, _ := record[registry.TypeKey].(string)
		models = append(models, graph.Model{Name: name, Type: typ, Targets: map[string]string{}})
	}
	for _, ref := range c.References() {
		for i := range models {
			if models[i].Name == ref.Model {
				models[i].Targets[ref.Key] = ref.Target
			}
		}
	}
	return models
}

// Build constructs the engine and its collaborators. When early_stopping is absent a
// single max_search_depth policy with its default limit is installed.
func Build(cfg *Config, opts ...BuildOption) (*Components, error) {
	o := buildOptions{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalogs == nil {
		o.catalogs = NewCatalogs(o.logger)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := registerProcess(cfg.Tools, o.catalogs); err != nil {
		return nil, err
	}

	b := registry.NewBuilder()
	for name, record := range cfg.Models {
		h, err := o.catalogs.Handlers.New(record)
		if err != nil {
			return nil, fmt.Errorf("models.%s: %w", name, err)
		}
		b.Register(name, h)
	}
	reg, err := b.Build()
	if err != nil {
		return nil, err
	}

	engineOpts := []runtime.EngineOption{
		runtime.WithHardCap(cfg.Search.MaxSearchIters),
		runtime.WithLogger(o.logger),
		runtime.WithLifecycleHooks(o.hooks),
		runtime.WithTracerProvider(o.tracer),
	}

	records := cfg.EarlyStopping
	if records == nil {
		records = []Record{{registry.TypeKey: policy.MaxDepth{}.Name()}}
	}
	for i, record := range records {
		p, err := o.catalogs.Policies.New(record)
		if err != nil {
			return nil, fmt.Errorf("early_stopping[%d]: %w", i, err)
		}
		engineOpts = append(engineOpts, runtime.WithPolicies(p))
	}

	if cfg.Answerer != nil {
		a, err := o.catalogs.Answerers.New(cfg.Answerer)
		if err != nil {
			return nil, fmt.Errorf("answerer: %w", err)
		}
		engineOpts = append(engineOpts, runtime.WithAnswerer(a))
	}

	renderers := make([]ports.Renderer, 0, len(cfg.Renderers))
	for i, record := range cfg.Renderers {
		r, err := o.catalogs.Renderers.New(record)
		if err != nil {
			return nil, fmt.Errorf("renderers[%d]: %w", i, err)
		}
		renderers = append(renderers, r)
	}
	if o.outputDir != "" && len(renderers) > 0 {
		engineOpts = append(engineOpts, runtime.WithRenderers(o.outputDir, renderers...))
	}

	engineOpts = append(engineOpts, o.extra...)

	c := &Components{
		Engine:   runtime.NewEngine(reg, cfg.StartModel, engineOpts...),
		Handlers: reg,
		Workers:  cfg.Workers,
	}

	if cfg.Reader != nil {
		c.Reader, err = o.catalogs.Readers.New(cfg.Reader)
		if err != nil {
			return nil, fmt.Errorf("reader: %w", err)
		}
	}

	if err := buildStore(cfg.Store, o.logger, c); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return c, nil
}

func registerProcess(cfg Tools, catalogs *Catalogs) error {
	var tools map[string]process.ProcessConfig
	if cfg.File != "" {
		var err error
		if tools, err = process.LoadTools(cfg.File); err != nil {
			return err
		}
	}
	timeout, err := parseDuration(cfg.Timeout)
	if err != nil {
		return fmt.Errorf("tools.timeout: %w", err)
	}
	process.Register(catalogs.Generators, process.NewRunner(
		process.WithRegistry(tools),
		process.WithInlineExecution(cfg.AllowInline),
		process.WithTimeout(timeout),
		process.WithBaseDir(cfg.Dir),
	))
	return nil
}

func buildStore(cfg Store, logger *slog.Logger, c *Components) error {
	ttl, err := parseDuration(cfg.TTL)
	if err != nil {
		return fmt.Errorf("ttl: %w", err)
	}

	switch cfg.Type {
	case "":
		return nil
	case "memory":
		c.Store = memory.NewStore()
		c.Locker = memory.NewLocker()
	case "file":
		c.Store = file.New(cfg.Path)
	case "redis":
		opts := []redis.Option{redis.WithTTL(ttl)}
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		s := redis.New(cfg.Address, cfg.Password, cfg.DB, opts...)
		c.Store = s
		c.Locker = redis.NewLocker(s.Client(), "recoma:")
		c.closers = append(c.closers, s)
	case "badger":
		s, err := badger.Open(badger.Config{Path: cfg.Path, InMemory: cfg.InMemory, TTL: ttl, Logger: logger})
		if err != nil {
			return err
		}
		c.Store = s
		c.closers = append(c.closers, s)
	default:
		return fmt.Errorf("unknown type %q", cfg.Type)
	}
	return wrapStore(cfg, c)
}

// wrapStore masks, then encrypts, results on their way to storage.
func wrapStore(cfg Store, c *Components) error {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.Redact)
		if err != nil {
			return fmt.Errorf("redact: %w", err)
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKeyEnv != "" {
		active, err := keyFromEnv(cfg.EncryptionKeyEnv)
		if err != nil {
			return err
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, name := range cfg.FallbackKeyEnvs {
			k, err := keyFromEnv(name)
			if err != nil {
				return err
			}
			enc.FallbackKeys = append(enc.FallbackKeys, k)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return err
		}
		mws = append(mws, mw)
	}
	if len(mws) > 0 {
		c.Store = middleware.Chain(c.Store, mws...)
	}
	return nil
}

func keyFromEnv(name string) ([]byte, error) {
	v := os.Getenv(name)
	if v == "" {
		return nil, fmt.Errorf("encryption key: $%s is not set", name)
	}
	key, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("encryption key: $%s is not base64: %w", name, err)
	}
	return key, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
