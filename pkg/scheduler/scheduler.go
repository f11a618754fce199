// Package scheduler computes execution orders for workflow graphs.
//
// Order returns a topological order (every node strictly after all of its
// dependencies); ParallelGroups partitions the nodes into levels whose members
// have no dependency relationship among them.
package scheduler

import (
	"github.com/aretw0/lattice/pkg/domain"
)

// Plan bundles both views of a graph, for dry runs and introspection.
type Plan struct {
	Order  []string   `json:"order"`
	Groups [][]string `json:"groups"`
}

// NewPlan computes the order and the parallel groups of g.
func NewPlan(g *domain.Graph) (*Plan, error) {
	order, err := Order(g)
	if err != nil {
		return nil, err
	}
	groups, err := ParallelGroups(g)
	if err != nil {
		return nil, err
	}
	return &Plan{Order: order, Groups: groups}, nil
}

type mark int

const (
	unvisited mark = iota
	inProgress
	done
)

// Order returns the node ids of g in dependency-first order.
// A cycle yields a *domain.CircularDependencyError naming a node on it.
func Order(g *domain.Graph) ([]string, error) {
	idx := g.Index()

	marks := make(map[string]mark, len(idx.Order))
	order := make([]string, 0, len(idx.Order))
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		switch marks[id] {
		case done:
			return nil
		case inProgress:
			return cycleError(stack, id)
		}

		marks[id] = inProgress
		stack = append(stack, id)

		for _, dep := range idx.Deps[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		marks[id] = done
		order = append(order, id)
		return nil
	}

	for _, id := range idx.Order {
		if marks[id] == unvisited {
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// cycleError reports the cycle closing at id. The stack holds the current
// DFS path, which walks from dependents towards dependencies, so the path is
// reversed to read in edge direction.
func cycleError(stack []string, id string) error {
	start := 0
	for i, s := range stack {
		if s == id {
			start = i
			break
		}
	}
	cycle := append([]string{}, stack[start:]...)
	cycle = append(cycle, id)
	for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}
	return &domain.CircularDependencyError{NodeID: id, Path: cycle}
}

// ParallelGroups returns the nodes of g grouped by level, where a node's
// level is one more than the highest level among its dependencies (0 when it
// has none). Within a group, nodes keep their declaration order.
func ParallelGroups(g *domain.Graph) ([][]string, error) {
	idx := g.Index()

	pending := make(map[string]int, len(idx.Order))
	dependents := make(map[string][]string, len(idx.Order))
	for _, id := range idx.Order {
		pending[id] = len(idx.Deps[id])
		for _, dep := range idx.Deps[id] {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	level := make(map[string]int, len(idx.Order))
	queue := make([]string, 0, len(idx.Order))
	for _, id := range idx.Order {
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	processed := 0
	maxLevel := -1
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++
		if level[id] > maxLevel {
			maxLevel = level[id]
		}

		for _, next := range dependents[id] {
			if level[id]+1 > level[next] {
				level[next] = level[id] + 1
			}
			pending[next]--
			if pending[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if processed < len(idx.Order) {
		// Some nodes never reached zero pending dependencies: let Order name the cycle.
		if _, err := Order(g); err != nil {
			return nil, err
		}
	}

	groups := make([][]string, maxLevel+1)
	for _, id := range idx.Order {
		groups[level[id]] = append(groups[level[id]], id)
	}
	return groups, nil
}
