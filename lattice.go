package lattice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/executor"
	"github.com/aretw0/lattice/pkg/expr"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/scheduler"
)

// Engine is the high-level entry point for the Lattice library.
// It wraps the internal runtime and implements ports.Runner.
type Engine struct {
	runtime      *runtime.Engine
	executors    *executor.Registry
	loader       ports.GraphLoader
	capabilities *registry.Registry
}

type config struct {
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	store        ports.RunStore
	loader       ports.GraphLoader
	nodeTimeout  time.Duration
	parallelism  int
	evaluator    expr.Evaluator
	language     string
	invoker      ports.CapabilityInvoker
	executors    map[domain.NodeType]executor.Executor
	capabilities *registry.Registry
}

// Option defines a functional option for configuring the Engine.
type Option func(*config)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls merge,
// in call order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithStore saves the record of every finished run.
func WithStore(store ports.RunStore) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLoader enables RunGraph and PlanGraph by graph id.
func WithLoader(l ports.GraphLoader) Option {
	return func(c *config) {
		c.loader = l
	}
}

// WithNodeTimeout bounds every node. A node's own timeout takes precedence.
func WithNodeTimeout(d time.Duration) Option {
	return func(c *config) {
		c.nodeTimeout = d
	}
}

// WithParallelism runs independent nodes concurrently, at most n at a time.
func WithParallelism(n int) Option {
	return func(c *config) {
		c.parallelism = n
	}
}

// WithEvaluator sets the expression evaluator used by Condition and
// Transform nodes. Defaults to HCL.
func WithEvaluator(ev expr.Evaluator) Option {
	return func(c *config) {
		c.evaluator = ev
	}
}

// WithExpressionLanguage selects a built-in evaluator by name ("hcl" or "lua").
func WithExpressionLanguage(name string) Option {
	return func(c *config) {
		c.language = name
	}
}

// WithInvoker sets the remote capability invoker. Capabilities registered
// locally with WithCapability are tried first.
func WithInvoker(inv ports.CapabilityInvoker) Option {
	return func(c *config) {
		c.invoker = inv
	}
}

// WithCapability registers a local capability function.
func WithCapability(kind domain.CapabilityKind, id string, fn registry.Function) Option {
	return func(c *config) {
		c.capabilities.Register(kind, id, fn)
	}
}

// WithTool registers a local tool.
func WithTool(id string, fn registry.Function) Option {
	return WithCapability(domain.CapabilityTool, id, fn)
}

// WithExecutor registers a custom executor for a node type, replacing any
// built-in for the same type.
func WithExecutor(t domain.NodeType, e executor.Executor) Option {
	return func(c *config) {
		c.executors[t] = e
	}
}

// New initializes a new Lattice Engine.
func New(opts ...Option) (*Engine, error) {
	cfg := &config{
		executors:    make(map[domain.NodeType]executor.Executor),
		capabilities: registry.NewRegistry(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	if cfg.evaluator == nil {
		ev, err := expr.New(cfg.language)
		if err != nil {
			return nil, err
		}
		cfg.evaluator = ev
	}

	executors := executor.NewDefaultRegistry(
		executor.WithEvaluator(cfg.evaluator),
		executor.WithInvoker(registry.Chain(cfg.capabilities, cfg.invoker)),
	)
	for t, e := range cfg.executors {
		executors.Register(t, e)
	}

	rt := runtime.NewEngine(
		runtime.WithRegistry(executors),
		runtime.WithLogger(cfg.logger),
		runtime.WithLifecycleHooks(cfg.hooks),
		runtime.WithStore(cfg.store),
		runtime.WithNodeTimeout(cfg.nodeTimeout),
		runtime.WithParallelism(cfg.parallelism),
	)

	return &Engine{
		runtime:      rt,
		executors:    executors,
		loader:       cfg.loader,
		capabilities: cfg.capabilities,
	}, nil
}

// NewRun prepares an idle ExecutionContext for g.
func (e *Engine) NewRun(g *domain.Graph) *domain.ExecutionContext {
	return e.runtime.NewRun(g)
}

// Execute runs g inside run and blocks until the run is terminal.
func (e *Engine) Execute(ctx context.Context, g *domain.Graph, run *domain.ExecutionContext, vars map[string]any) error {
	return e.runtime.Execute(ctx, g, run, vars)
}

// Run executes g with vars as the initial variables. Node failures are
// recorded in the returned context; the error is reserved for runs that
// could not start (invalid graph, circular dependency).
func (e *Engine) Run(ctx context.Context, g *domain.Graph, vars map[string]any) (*domain.ExecutionContext, error) {
	return e.runtime.Run(ctx, g, vars)
}

// RunGraph loads graph id from the configured loader and runs it.
func (e *Engine) RunGraph(ctx context.Context, id string, vars map[string]any) (*domain.ExecutionContext, error) {
	g, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, g, vars)
}

// Cancel requests cancellation of an in-flight run.
func (e *Engine) Cancel(runID string) error {
	return e.runtime.Cancel(runID)
}

// Active returns the context of an in-flight run.
func (e *Engine) Active(runID string) (*domain.ExecutionContext, bool) {
	return e.runtime.Active(runID)
}

// Plan returns the execution order and parallel groups of g.
func (e *Engine) Plan(g *domain.Graph) (*scheduler.Plan, error) {
	return e.runtime.Plan(g)
}

// PlanGraph loads graph id and plans it.
func (e *Engine) PlanGraph(ctx context.Context, id string) (*scheduler.Plan, error) {
	g, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.Plan(g)
}

// Validate checks g without running it: structural invariants, cycles,
// and that every node type has an executor. All problems are reported.
func (e *Engine) Validate(g *domain.Graph) error {
	if err := g.Validate(); err != nil {
		return err
	}
	var errs []error
	if _, err := scheduler.Order(g); err != nil {
		errs = append(errs, err)
	}
	for _, n := range g.Nodes {
		if _, err := e.executors.Lookup(n.Type); err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", n.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Loader returns the configured graph loader, or nil.
func (e *Engine) Loader() ports.GraphLoader { return e.loader }

// Executors returns the executor registry.
func (e *Engine) Executors() *executor.Registry { return e.executors }

// Capabilities returns the local capability registry.
func (e *Engine) Capabilities() *registry.Registry { return e.capabilities }

func (e *Engine) load(ctx context.Context, id string) (*domain.Graph, error) {
	if e.loader == nil {
		return nil, errors.New("no graph loader configured")
	}
	return e.loader.Load(ctx, id)
}

var _ ports.Runner = (*Engine)(nil)
