package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// GraphLoaderContractTest verifies that an adapter complies with
// ports.GraphLoader. want holds the graphs the loader was seeded with,
// keyed by id.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, want map[string]*domain.Graph) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for id, expected := range want {
			g, err := loader.Load(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error loading graph %s: %v", id, err)
			}
			if g.ID != id {
				t.Errorf("graph id = %q, want %q", g.ID, id)
			}
			if len(g.Nodes) != len(expected.Nodes) || len(g.Edges) != len(expected.Edges) {
				t.Errorf("graph %s has %d nodes/%d edges, want %d/%d",
					id, len(g.Nodes), len(g.Edges), len(expected.Nodes), len(expected.Edges))
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-graph")
		if !errors.Is(err, domain.ErrGraphNotFound) {
			t.Errorf("expected ErrGraphNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		ids, err := loader.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing graphs: %v", err)
		}
		if len(ids) != len(want) {
			t.Errorf("expected %d graphs, got %d", len(want), len(ids))
		}
		seen := make(map[string]bool, len(ids))
		for i, id := range ids {
			seen[id] = true
			if i > 0 && ids[i-1] > id {
				t.Errorf("list is not sorted: %v", ids)
			}
		}
		for id := range want {
			if !seen[id] {
				t.Errorf("graph %s missing from list", id)
			}
		}
	})
}
