package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/expr"
	"github.com/aretw0/lattice/pkg/ports"
)

// InputName is the scope name bound to the value arriving from upstream.
const InputName = "input"

// Inputs is the resolved scope handed to an executor: the run variables,
// the results of upstream nodes ("{id}_result") and the upstream value
// ("input").
type Inputs map[string]any

// Input returns the value arriving from upstream, if any.
func (in Inputs) Input() (any, bool) {
	v, ok := in[InputName]
	return v, ok
}

// Executor runs one type of node.
type Executor interface {
	// RequiredInputs names the inputs that must be present before Execute
	// is called. A missing one fails the node with InvalidInput.
	RequiredInputs(node domain.Node) []string
	// ProducedOutputs names the variables the executor writes besides the
	// node result.
	ProducedOutputs(node domain.Node) []string
	// Execute performs the work and returns the node result. Writes to run
	// go through SetNodeVariable so they are dropped once the node has
	// settled, which happens early when an executor outlives its deadline.
	Execute(ctx context.Context, node domain.Node, run *domain.ExecutionContext, inputs Inputs) (any, error)
}

// Registry maps node type tags to executors. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	execs map[domain.NodeType]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{execs: make(map[domain.NodeType]Executor)}
}

// Register binds an executor to a node type, replacing any previous one.
func (r *Registry) Register(t domain.NodeType, e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs[t] = e
}

// Lookup returns the executor for a node type.
func (r *Registry) Lookup(t domain.NodeType) (Executor, error) {
	r.mu.RLock()
	e, ok := r.execs[t]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrNoExecutor, t)
	}
	return e, nil
}

// Types returns the registered node types, sorted.
func (r *Registry) Types() []domain.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.NodeType, 0, len(r.execs))
	for t := range r.execs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type defaults struct {
	evaluator expr.Evaluator
	invoker   ports.CapabilityInvoker
}

// Option configures NewDefaultRegistry.
type Option func(*defaults)

// WithEvaluator sets the evaluator used by condition and transform nodes.
// Defaults to expr.NewHCL().
func WithEvaluator(ev expr.Evaluator) Option {
	return func(d *defaults) { d.evaluator = ev }
}

// WithInvoker sets the invoker used by capability nodes. Without one,
// capability nodes fail with ErrCapabilityNotFound.
func WithInvoker(inv ports.CapabilityInvoker) Option {
	return func(d *defaults) { d.invoker = inv }
}

// NewDefaultRegistry returns a registry with the built-in executors.
func NewDefaultRegistry(opts ...Option) *Registry {
	d := &defaults{evaluator: expr.NewHCL()}
	for _, opt := range opts {
		opt(d)
	}
	r := NewRegistry()
	r.Register(domain.NodeTypeInput, &InputExecutor{})
	r.Register(domain.NodeTypeOutput, &OutputExecutor{})
	r.Register(domain.NodeTypeCondition, &ConditionExecutor{Evaluator: d.evaluator})
	r.Register(domain.NodeTypeTransform, &TransformExecutor{Evaluator: d.evaluator})
	r.Register(domain.NodeTypeCapability, &CapabilityExecutor{Invoker: d.invoker})
	return r
}
