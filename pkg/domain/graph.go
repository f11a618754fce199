package domain

import (
	"errors"
	"fmt"
)

// Graph is the immutable description of a workflow.
// Nodes and edges live in flat collections; adjacency is derived by Index.
type Graph struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Validate checks the structural invariants of the graph: node ids are unique
// and non-empty, and every edge references existing nodes.
// Acyclicity is enforced by the scheduler.
func (g *Graph) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: graph is nil", ErrInvalidGraph)
	}

	var errs []error
	seen := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("node at index %d has no id", i))
			continue
		}
		if seen[n.ID] {
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.ID))
		}
		seen[n.ID] = true
	}

	for i, e := range g.Edges {
		label := e.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if !seen[e.Source] {
			errs = append(errs, fmt.Errorf("edge %s: unknown source %q", label, e.Source))
		}
		if !seen[e.Target] {
			errs = append(errs, fmt.Errorf("edge %s: unknown target %q", label, e.Target))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(errs...))
	}
	return nil
}

// Index is the auxiliary adjacency view of a Graph, keyed by node id.
type Index struct {
	// Order is the declaration order of node ids.
	Order    []string
	Nodes    map[string]Node
	Incoming map[string][]Edge
	Outgoing map[string][]Edge
	// Deps maps a node to the distinct sources of its incoming edges, in edge order.
	Deps map[string][]string
}

// Index builds the adjacency maps. It assumes Validate has passed; edges
// pointing at unknown nodes are ignored.
func (g *Graph) Index() *Index {
	idx := &Index{
		Order:    make([]string, 0, len(g.Nodes)),
		Nodes:    make(map[string]Node, len(g.Nodes)),
		Incoming: make(map[string][]Edge, len(g.Nodes)),
		Outgoing: make(map[string][]Edge, len(g.Nodes)),
		Deps:     make(map[string][]string, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		if _, dup := idx.Nodes[n.ID]; dup {
			continue
		}
		idx.Order = append(idx.Order, n.ID)
		idx.Nodes[n.ID] = n
		idx.Deps[n.ID] = nil
	}

	for _, e := range g.Edges {
		if _, ok := idx.Nodes[e.Source]; !ok {
			continue
		}
		if _, ok := idx.Nodes[e.Target]; !ok {
			continue
		}
		idx.Incoming[e.Target] = append(idx.Incoming[e.Target], e)
		idx.Outgoing[e.Source] = append(idx.Outgoing[e.Source], e)
		if !contains(idx.Deps[e.Target], e.Source) {
			idx.Deps[e.Target] = append(idx.Deps[e.Target], e.Source)
		}
	}
	return idx
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
