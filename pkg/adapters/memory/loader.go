// Package memory provides in-memory implementations of the Lattice ports,
// for tests and for hosts that build graphs programmatically.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// Loader implements ports.GraphLoader over a map of graphs keyed by id.
type Loader struct {
	mu     sync.RWMutex
	graphs map[string]*domain.Graph
}

// NewLoader creates a loader holding the given graphs. Every graph needs an id.
func NewLoader(graphs ...*domain.Graph) (*Loader, error) {
	l := &Loader{graphs: make(map[string]*domain.Graph, len(graphs))}
	for _, g := range graphs {
		if err := l.Add(g); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add registers or replaces a graph.
func (l *Loader) Add(g *domain.Graph) error {
	if g == nil || g.ID == "" {
		return fmt.Errorf("graph missing ID")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.graphs[g.ID] = cloneGraph(g)
	return nil
}

// Load returns a copy of the graph registered under id.
func (l *Loader) Load(_ context.Context, id string) (*domain.Graph, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.graphs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrGraphNotFound)
	}
	return cloneGraph(g), nil
}

// List returns all graph ids, sorted.
func (l *Loader) List(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.graphs))
	for id := range l.graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func cloneGraph(g *domain.Graph) *domain.Graph {
	c := *g
	c.Nodes = slices.Clone(g.Nodes)
	c.Edges = slices.Clone(g.Edges)
	return &c
}
