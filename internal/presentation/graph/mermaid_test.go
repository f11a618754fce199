package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		graph    *domain.Graph
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Node Shapes",
			graph: &domain.Graph{Nodes: []domain.Node{
				{ID: "in", Type: domain.NodeTypeInput},
				{ID: "out", Type: domain.NodeTypeOutput},
				{ID: "check", Type: domain.NodeTypeCondition},
				{ID: "call", Type: domain.NodeTypeCapability},
				{ID: "calc", Type: domain.NodeTypeTransform},
			}},
			contains: []string{
				`in[/"in <br/> input"/]`,
				`out(["out <br/> output"])`,
				`check{"check <br/> condition"}`,
				`call[["call <br/> capability"]]`,
				`calc["calc <br/> transform"]`,
			},
		},
		{
			name: "ID Sanitization",
			graph: &domain.Graph{Nodes: []domain.Node{
				{ID: "path/to/file.md"},
				{ID: "hyphen-ated"},
			}},
			contains: []string{
				`path_to_file_md["path/to/file.md"]`,
				`hyphen_ated["hyphen-ated"]`,
			},
		},
		{
			name: "Branch Labels",
			graph: &domain.Graph{
				Nodes: []domain.Node{{ID: "c"}, {ID: "a"}, {ID: "b"}, {ID: "d"}},
				Edges: []domain.Edge{
					{Source: "c", Target: "a", SourceHandle: "true"},
					{Source: "c", Target: "b", SourceHandle: "false-branch"},
					{Source: "a", Target: "d"},
				},
			},
			contains: []string{
				`c -- "true" --> a`,
				`c -- "false" --> b`,
				`a --> d`,
			},
		},
		{
			name:     "Timeout",
			graph:    &domain.Graph{Nodes: []domain.Node{{ID: "slow", Timeout: "5s"}}},
			contains: []string{"⏱️ 5s"},
		},
		{
			name:  "Status Overlay",
			graph: &domain.Graph{Nodes: []domain.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}},
			overlay: graph.OverlayFromRecord(&domain.RunRecord{NodeStatuses: map[string]domain.NodeStatus{
				"a": domain.NodeSucceeded,
				"b": domain.NodeFailed,
				"c": domain.NodeSkipped,
				"d": domain.NodeIdle,
			}}),
			contains: []string{
				"class a succeeded;",
				"class b failed;",
				"class c skipped;",
			},
			excludes: []string{"class d"},
		},
		{
			name:     "No Overlay",
			graph:    &domain.Graph{Nodes: []domain.Node{{ID: "a"}}},
			excludes: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.graph, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("GenerateMermaid() missing header:\n%v", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnwanted substring: %v", got, unwanted)
				}
			}
		})
	}
}
