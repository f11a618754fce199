package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		name    string
		graph   *Graph
		wantErr string
	}{
		{
			name: "valid graph",
			graph: &Graph{
				Nodes: []Node{{ID: "a"}, {ID: "b"}},
				Edges: []Edge{{ID: "e1", Source: "a", Target: "b"}},
			},
		},
		{
			name:    "nil graph",
			graph:   nil,
			wantErr: "graph is nil",
		},
		{
			name:    "duplicate ids",
			graph:   &Graph{Nodes: []Node{{ID: "a"}, {ID: "a"}}},
			wantErr: `duplicate node id "a"`,
		},
		{
			name:    "missing id",
			graph:   &Graph{Nodes: []Node{{Type: NodeTypeInput}}},
			wantErr: "has no id",
		},
		{
			name: "dangling edge",
			graph: &Graph{
				Nodes: []Node{{ID: "a"}},
				Edges: []Edge{{ID: "e1", Source: "a", Target: "ghost"}},
			},
			wantErr: `unknown target "ghost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.graph.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGraph))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGraph_Index(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []Edge{
			{ID: "e1", Source: "a", Target: "c"},
			{ID: "e2", Source: "b", Target: "c"},
			{ID: "e3", Source: "a", Target: "c", SourceHandle: "true"},
		},
	}

	idx := g.Index()
	assert.Equal(t, []string{"a", "b", "c"}, idx.Order)
	assert.Equal(t, []string{"a", "b"}, idx.Deps["c"], "duplicate edges must not duplicate deps")
	assert.Empty(t, idx.Deps["a"])
	assert.Len(t, idx.Incoming["c"], 3)
	assert.Len(t, idx.Outgoing["a"], 2)
}

func TestEdge_Branch(t *testing.T) {
	assert.Equal(t, HandleTrue, Edge{SourceHandle: "true"}.Branch())
	assert.Equal(t, HandleTrue, Edge{SourceHandle: "true-branch"}.Branch())
	assert.Equal(t, HandleFalse, Edge{SourceHandle: "False-Branch"}.Branch())
	assert.Equal(t, "", Edge{SourceHandle: "out"}.Branch())
	assert.Equal(t, "", Edge{}.Branch())
}
