package dsl

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
)

// Builder manages the graph construction. Nodes keep the order in which
// they were first added.
type Builder struct {
	id    string
	name  string
	order []string
	nodes map[string]*NodeBuilder
	edges []domain.Edge
}

// New creates a new graph builder.
func New(id string) *Builder {
	return &Builder{
		id:    id,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Name sets the human readable graph name.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string, t domain.NodeType) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id, Type: t},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

func (b *Builder) Input(id string) *NodeBuilder     { return b.Add(id, domain.NodeTypeInput) }
func (b *Builder) Transform(id string) *NodeBuilder { return b.Add(id, domain.NodeTypeTransform) }
func (b *Builder) Condition(id string) *NodeBuilder { return b.Add(id, domain.NodeTypeCondition) }
func (b *Builder) Capability(id string) *NodeBuilder {
	return b.Add(id, domain.NodeTypeCapability)
}
func (b *Builder) Output(id string) *NodeBuilder { return b.Add(id, domain.NodeTypeOutput) }

func (b *Builder) connect(source, target, handle string) {
	b.edges = append(b.edges, domain.Edge{
		ID:           fmt.Sprintf("e%d", len(b.edges)+1),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	})
}

// Graph returns the constructed graph after checking its structure.
func (b *Builder) Graph() (*domain.Graph, error) {
	g := &domain.Graph{
		ID:    b.id,
		Name:  b.name,
		Nodes: make([]domain.Node, 0, len(b.order)),
		Edges: append([]domain.Edge(nil), b.edges...),
	}
	for _, id := range b.order {
		g.Nodes = append(g.Nodes, b.nodes[id].Build())
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// MustGraph is like Graph but panics on an invalid graph.
func (b *Builder) MustGraph() *domain.Graph {
	g, err := b.Graph()
	if err != nil {
		panic(err)
	}
	return g
}

// Build compiles the graph into a MemoryLoader.
func (b *Builder) Build() (*memory.Loader, error) {
	g, err := b.Graph()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewLoader(g)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
