package dsl

import (
	"maps"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/executor"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Set stores a raw payload field.
func (n *NodeBuilder) Set(key string, value any) *NodeBuilder {
	if n.node.Data == nil {
		n.node.Data = make(map[string]any)
	}
	n.node.Data[key] = value
	return n
}

// Timeout overrides the engine node timeout (e.g. "5s").
func (n *NodeBuilder) Timeout(d string) *NodeBuilder {
	n.node.Timeout = d
	return n
}

// To adds an unconditional edge to the target node.
func (n *NodeBuilder) To(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, "")
	return n
}

// OnTrue adds an edge taken when a condition holds.
func (n *NodeBuilder) OnTrue(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, domain.HandleTrue)
	return n
}

// OnFalse adds an edge taken when a condition does not hold.
func (n *NodeBuilder) OnFalse(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, domain.HandleFalse)
	return n
}

// Variable names the run variable an input node seeds.
func (n *NodeBuilder) Variable(name string) *NodeBuilder { return n.Set("variable", name) }

// Type declares the schema type of an input node ("int", "[string]").
func (n *NodeBuilder) Type(name string) *NodeBuilder { return n.Set("type", name) }

// Default sets the value an input node falls back to.
func (n *NodeBuilder) Default(v any) *NodeBuilder { return n.Set("defaultValue", v) }

// From selects the variable a transform reads its array from.
func (n *NodeBuilder) From(variable string) *NodeBuilder { return n.Set("inputVariable", variable) }

// Map applies fn to every item.
func (n *NodeBuilder) Map(fn string) *NodeBuilder { return n.transform(executor.TransformMap, fn) }

// Filter keeps the items for which fn is truthy.
func (n *NodeBuilder) Filter(fn string) *NodeBuilder {
	return n.transform(executor.TransformFilter, fn)
}

// Reduce folds the items with fn, starting from initial.
func (n *NodeBuilder) Reduce(fn string, initial any) *NodeBuilder {
	return n.transform(executor.TransformReduce, fn).Set("initialValue", initial)
}

// Custom evaluates fn over the whole input.
func (n *NodeBuilder) Custom(fn string) *NodeBuilder {
	return n.transform(executor.TransformCustom, fn)
}

func (n *NodeBuilder) transform(kind, fn string) *NodeBuilder {
	return n.Set("transformType", kind).Set("transformFunction", fn)
}

// Compare configures a condition of the given kind ("equals", "greater", ...).
// Operands may reference variables with {{name}}.
func (n *NodeBuilder) Compare(kind string, left, right any) *NodeBuilder {
	return n.Set("conditionType", kind).Set("leftValue", left).Set("rightValue", right)
}

// Expression configures a custom condition.
func (n *NodeBuilder) Expression(expression string) *NodeBuilder {
	return n.Set("conditionType", executor.ConditionCustom).Set("customExpression", expression)
}

// Call configures the capability a node invokes.
func (n *NodeBuilder) Call(kind domain.CapabilityKind, id string, params map[string]any) *NodeBuilder {
	n.Set("capabilityType", string(kind)).Set("capabilityId", id)
	if params != nil {
		n.Set("parameters", maps.Clone(params))
	}
	return n
}

// AsError tags the value recorded by an output node as an error.
func (n *NodeBuilder) AsError() *NodeBuilder { return n.Set("outputType", string(domain.OutputError)) }

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	node := n.node
	node.Data = maps.Clone(n.node.Data)
	return node
}
