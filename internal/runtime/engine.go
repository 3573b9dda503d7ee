package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/recoma/pkg/answer"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/policy"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/render"
)

// DefaultHardCap bounds the loop even when no stopping policy is configured.
const DefaultHardCap = 10000

const tracerName = "github.com/aretw0/recoma/internal/runtime"

// Engine runs best-first search over reasoning trees.
// It holds no per-task state, so one Engine can serve concurrent searches.
type Engine struct {
	handlers  HandlerLookup
	start     string
	hardCap   int
	policies  policy.Set
	answerer  ports.Answerer
	renderers []ports.Renderer
	outputDir string
	hooks     domain.SearchHooks
	logger    *slog.Logger
	tracer    trace.Tracer
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithHardCap overrides DefaultHardCap. Non-positive values are ignored.
func WithHardCap(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.hardCap = n
		}
	}
}

// WithPolicies appends early-stopping policies, evaluated in the given order.
func WithPolicies(p ...ports.StoppingPolicy) EngineOption {
	return func(e *Engine) {
		e.policies = append(e.policies, p...)
	}
}

// WithAnswerer sets the answer extractor (default: tail output of the last node).
func WithAnswerer(a ports.Answerer) EngineOption {
	return func(e *Engine) {
		if a != nil {
			e.answerer = a
		}
	}
}

// WithRenderers writes every popped tree to dir with each renderer.
func WithRenderers(dir string, r ...ports.Renderer) EngineOption {
	return func(e *Engine) {
		e.outputDir = dir
		e.renderers = append(e.renderers, r...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.SearchHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for search and dispatch spans.
func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewEngine creates an engine whose initial trees target the start handler.
func NewEngine(handlers HandlerLookup, start string, opts ...EngineOption) *Engine {
	e := &Engine{
		handlers: handlers,
		start:    start,
		hardCap:  DefaultHardCap,
		answerer: answer.NewTail(-1),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start returns the name of the start handler.
func (e *Engine) Start() string { return e.start }

// Search solves one task.
//
// Resource exhaustion (empty frontier, hard cap) is not an error: the result carries
// a best-effort answer and a non-solved Outcome. A fatal handler error or a canceled
// context returns a failed result together with the error.
func (e *Engine) Search(ctx context.Context, task *domain.Task) (*domain.Result, error) {
	ctx, span := e.tracer.Start(ctx, "recoma.Search",
		trace.WithAttributes(
			attribute.String("recoma.task_id", task.ID),
			attribute.String("recoma.start", e.start),
		),
	)
	defer span.End()

	log := e.logger.With("task", task.ID)

	initial := domain.NewTree(task)
	if _, err := initial.AddChild(domain.NoParent, domain.Step{
		Input:           task.Question,
		InputForDisplay: task.Question,
		Target:          e.start,
	}); err != nil {
		return e.fail(span, log, task, nil, 0, err)
	}

	queue := newFrontier()
	queue.push(initial)

	var last *domain.Tree
	iteration := 0
	for iteration < e.hardCap {
		if err := ctx.Err(); err != nil {
			return e.fail(span, log, task, last, iteration, err)
		}

		current, ok := queue.pop()
		if !ok {
			log.Warn("frontier exhausted, returning degraded answer", "iterations", iteration)
			return e.finish(span, log, task, last, domain.OutcomeExhausted, iteration), nil
		}
		last = current

		if e.hooks.OnPop != nil {
			e.hooks.OnPop(domain.PopEvent{
				TaskID:    task.ID,
				Iteration: iteration,
				Score:     current.Score(),
				Depth:     current.Depth(),
				Frontier:  queue.Len(),
			})
		}
		e.render(log, task, current)

		open, ok := current.OpenNode()
		if !ok {
			return e.finish(span, log, task, current, domain.OutcomeSolved, iteration), nil
		}
		if log.Enabled(ctx, slog.LevelDebug) {
			n, _ := current.Node(open)
			log.Debug("exploring", "node", n.Label(), "score", current.Score(), "depth", current.Depth())
		}

		successors, err := e.dispatch(ctx, current)
		if err != nil {
			var de *DispatchError
			if !errors.As(err, &de) {
				return e.fail(span, log, task, current, iteration, err)
			}
			log.Warn("branch pruned", "kind", de.Kind, "handler", de.Target, "error", de.Err)
			if e.hooks.OnPrune != nil {
				e.hooks.OnPrune(domain.PruneEvent{
					TaskID: task.ID,
					Reason: domain.PruneDispatch,
					Kind:   string(de.Kind),
					Depth:  current.Depth(),
				})
			}
		}

		for _, s := range successors {
			if name, stop := e.policies.Check(s, iteration, queue); stop {
				log.Debug("candidate rejected", "policy", name, "depth", s.Depth(), "iteration", iteration)
				if e.hooks.OnPrune != nil {
					e.hooks.OnPrune(domain.PruneEvent{
						TaskID: task.ID,
						Reason: domain.PrunePolicy,
						Policy: name,
						Depth:  s.Depth(),
					})
				}
				continue
			}
			queue.push(s)
		}
		iteration++
	}

	best, ok := queue.pop()
	if !ok {
		best = last
	}
	log.Error("search hit hard iteration cap, returning best remaining candidate", "cap", e.hardCap)
	return e.finish(span, log, task, best, domain.OutcomeCapped, iteration), nil
}

func (e *Engine) dispatch(ctx context.Context, tree *domain.Tree) ([]*domain.Tree, error) {
	attrs := []attribute.KeyValue{attribute.Float64("recoma.score", tree.Score())}
	if id, ok := tree.OpenNode(); ok {
		n, _ := tree.Node(id)
		attrs = append(attrs, attribute.String("recoma.handler", n.Target()), attribute.Int("recoma.node", int(id)))
	}
	ctx, span := e.tracer.Start(ctx, "recoma.Dispatch", trace.WithAttributes(attrs...))
	defer span.End()

	successors, err := Dispatch(ctx, e.handlers, tree)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("recoma.successors", len(successors)))
	return successors, nil
}

func (e *Engine) render(log *slog.Logger, task *domain.Task, tree *domain.Tree) {
	if e.outputDir == "" {
		return
	}
	for _, r := range e.renderers {
		if err := render.WriteFile(e.outputDir, task.ID, r, tree); err != nil {
			log.Warn("renderer failed", "format", r.Format(), "suffix", r.Suffix(), "error", err)
		}
	}
}

func (e *Engine) answer(tree *domain.Tree) string {
	if tree == nil {
		return ""
	}
	return e.answerer.Answer(tree)
}

func (e *Engine) finish(span trace.Span, log *slog.Logger, task *domain.Task, tree *domain.Tree, outcome domain.Outcome, iterations int) *domain.Result {
	res := &domain.Result{
		Task:       task,
		Answer:     e.answer(tree),
		FinalTree:  tree,
		Outcome:    outcome,
		Iterations: iterations,
	}
	span.SetAttributes(
		attribute.String("recoma.outcome", string(outcome)),
		attribute.Int("recoma.iterations", iterations),
	)
	if outcome == domain.OutcomeSolved {
		span.SetStatus(codes.Ok, "")
		log.Info("solved", "question", task.Question, "answer", res.Answer, "iterations", iterations)
	} else {
		span.SetStatus(codes.Error, string(outcome))
	}
	if e.hooks.OnFinish != nil {
		e.hooks.OnFinish(domain.FinishEvent{TaskID: task.ID, Outcome: outcome, Iterations: iterations})
	}
	return res
}

func (e *Engine) fail(span trace.Span, log *slog.Logger, task *domain.Task, tree *domain.Tree, iterations int, err error) (*domain.Result, error) {
	span.RecordError(err)
	log.Error("search failed", "iterations", iterations, "error", err)
	res := e.finish(span, log, task, tree, domain.OutcomeFailed, iterations)
	res.Error = err
	return res, err
}
