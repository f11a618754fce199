package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/executor"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/scheduler"
)

// Engine executes workflow graphs. One Engine can drive many runs
// concurrently; each run owns its ExecutionContext.
type Engine struct {
	registry    *executor.Registry
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	store       ports.RunStore
	nodeTimeout time.Duration
	parallelism int

	mu     sync.Mutex
	active map[string]*domain.ExecutionContext
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry sets the executor registry. Defaults to
// executor.NewDefaultRegistry().
func WithRegistry(r *executor.Registry) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStore saves a RunRecord of every finished run.
func WithStore(store ports.RunStore) EngineOption {
	return func(e *Engine) {
		e.store = store
	}
}

// WithNodeTimeout bounds the execution of every node. A node's own Timeout
// field takes precedence. Zero disables the limit.
func WithNodeTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.nodeTimeout = d
	}
}

// WithParallelism runs independent nodes of the same scheduling level
// concurrently, at most n at a time. n <= 1 keeps strictly sequential
// dispatch in topological order.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		active: make(map[string]*domain.ExecutionContext),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = executor.NewDefaultRegistry()
	}
	return e
}

// Registry exposes the executor registry, e.g. to register custom node types.
func (e *Engine) Registry() *executor.Registry { return e.registry }

// NewRun prepares an idle ExecutionContext with a fresh run id.
func (e *Engine) NewRun(g *domain.Graph) *domain.ExecutionContext {
	graphID := ""
	if g != nil {
		graphID = g.ID
	}
	return domain.NewExecutionContext(uuid.NewString(), graphID)
}

// Run executes g with vars as the initial variables and returns the
// finished context. The error is non-nil only for fatal conditions
// (invalid graph, circular dependency); node failures are recorded in the
// context.
func (e *Engine) Run(ctx context.Context, g *domain.Graph, vars map[string]any) (*domain.ExecutionContext, error) {
	run := e.NewRun(g)
	err := e.Execute(ctx, g, run, vars)
	return run, err
}

// Cancel requests cancellation of an in-flight run. It takes effect at the
// next node boundary.
func (e *Engine) Cancel(runID string) error {
	run, ok := e.Active(runID)
	if !ok {
		return fmt.Errorf("cancel %s: %w", runID, domain.ErrRunNotFound)
	}
	run.RequestCancel()
	e.logger.Info("run cancellation requested", "run_id", runID)
	return nil
}

// Active returns the context of an in-flight run.
func (e *Engine) Active(runID string) (*domain.ExecutionContext, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	run, ok := e.active[runID]
	return run, ok
}

// Plan validates g and returns its execution order and parallel groups
// without executing anything.
func (e *Engine) Plan(g *domain.Graph) (*scheduler.Plan, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return scheduler.NewPlan(g)
}

func (e *Engine) track(run *domain.ExecutionContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active[run.RunID()] = run
}

func (e *Engine) untrack(run *domain.ExecutionContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, run.RunID())
}
