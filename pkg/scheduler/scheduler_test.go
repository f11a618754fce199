package scheduler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphOf(ids []string, edges ...[2]string) *domain.Graph {
	g := &domain.Graph{}
	for _, id := range ids {
		g.Nodes = append(g.Nodes, domain.Node{ID: id})
	}
	for i, e := range edges {
		g.Edges = append(g.Edges, domain.Edge{ID: fmt.Sprintf("e%d", i), Source: e[0], Target: e[1]})
	}
	return g
}

func assertDependencyOrder(t *testing.T, g *domain.Graph, order []string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	require.Len(t, pos, len(g.Nodes), "every node must appear exactly once")
	for _, e := range g.Edges {
		assert.Less(t, pos[e.Source], pos[e.Target], "%s must come before %s", e.Source, e.Target)
	}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name  string
		graph *domain.Graph
	}{
		{"empty", graphOf(nil)},
		{"single", graphOf([]string{"a"})},
		{"chain declared backwards", graphOf([]string{"c", "b", "a"}, [2]string{"a", "b"}, [2]string{"b", "c"})},
		{"diamond", graphOf([]string{"d", "c", "b", "a"},
			[2]string{"a", "b"}, [2]string{"a", "c"}, [2]string{"b", "d"}, [2]string{"c", "d"})},
		{"disconnected", graphOf([]string{"x", "y", "z"}, [2]string{"z", "x"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := Order(tt.graph)
			require.NoError(t, err)
			assertDependencyOrder(t, tt.graph, order)
		})
	}
}

func TestOrder_Deterministic(t *testing.T) {
	g := graphOf([]string{"a", "b", "c", "d"}, [2]string{"a", "d"}, [2]string{"b", "d"})
	first, err := Order(g)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Order(g)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, first)
}

func TestOrder_Cycle(t *testing.T) {
	t.Run("two node cycle", func(t *testing.T) {
		g := graphOf([]string{"A", "B"}, [2]string{"A", "B"}, [2]string{"B", "A"})
		_, err := Order(g)

		var cycleErr *domain.CircularDependencyError
		require.True(t, errors.As(err, &cycleErr))
		assert.Contains(t, []string{"A", "B"}, cycleErr.NodeID)
		assert.Equal(t, cycleErr.NodeID, cycleErr.Path[0])
		assert.Equal(t, cycleErr.NodeID, cycleErr.Path[len(cycleErr.Path)-1])
	})

	t.Run("three node cycle behind a root", func(t *testing.T) {
		g := graphOf([]string{"root", "a", "b", "c"},
			[2]string{"root", "a"}, [2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"})
		_, err := Order(g)

		var cycleErr *domain.CircularDependencyError
		require.True(t, errors.As(err, &cycleErr))
		assert.NotEqual(t, "root", cycleErr.NodeID)
		assert.Len(t, cycleErr.Path, 4)
	})

	t.Run("self loop", func(t *testing.T) {
		g := graphOf([]string{"a"}, [2]string{"a", "a"})
		_, err := Order(g)

		var cycleErr *domain.CircularDependencyError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, "a", cycleErr.NodeID)
	})
}

func TestParallelGroups(t *testing.T) {
	g := graphOf([]string{"a", "b", "c", "d", "e"},
		[2]string{"a", "c"}, [2]string{"b", "c"}, [2]string{"c", "d"}, [2]string{"a", "d"})

	groups, err := ParallelGroups(g)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "e"}, {"c"}, {"d"}}, groups)

	// Every node appears exactly once, at 1 + max(level of deps).
	level := map[string]int{}
	count := 0
	for i, group := range groups {
		for _, id := range group {
			level[id] = i
			count++
		}
	}
	assert.Equal(t, len(g.Nodes), count)

	idx := g.Index()
	for _, id := range idx.Order {
		want := 0
		for _, dep := range idx.Deps[id] {
			if level[dep]+1 > want {
				want = level[dep] + 1
			}
		}
		assert.Equal(t, want, level[id], "level of %s", id)
	}
}

func TestParallelGroups_Cycle(t *testing.T) {
	g := graphOf([]string{"a", "b", "c"}, [2]string{"a", "b"}, [2]string{"b", "a"})
	_, err := ParallelGroups(g)

	var cycleErr *domain.CircularDependencyError
	assert.True(t, errors.As(err, &cycleErr))
}

func TestNewPlan(t *testing.T) {
	g := graphOf([]string{"a", "b"}, [2]string{"a", "b"})
	plan, err := NewPlan(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, plan.Order)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, plan.Groups)
}
