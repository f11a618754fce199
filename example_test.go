package lattice_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
)

// ExampleEngine_Run builds a small branching workflow in code.
func ExampleEngine_Run() {
	graph := &domain.Graph{
		ID: "discount",
		Nodes: []domain.Node{
			{ID: "total", Type: domain.NodeTypeInput, Data: map[string]any{"type": "number"}},
			{ID: "big", Type: domain.NodeTypeCondition, Data: map[string]any{
				"conditionType": "greater", "leftValue": "{{total}}", "rightValue": 100,
			}},
			{ID: "discounted", Type: domain.NodeTypeTransform, Data: map[string]any{
				"transformType": "custom", "transformFunction": "input * 0.9",
			}},
			{ID: "result", Type: domain.NodeTypeOutput},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "total", Target: "big"},
			{ID: "e2", Source: "big", Target: "discounted", SourceHandle: domain.HandleTrue},
			{ID: "e3", Source: "discounted", Target: "result"},
		},
	}

	engine, err := lattice.New()
	if err != nil {
		log.Fatal(err)
	}

	run, err := engine.Run(context.Background(), graph, map[string]any{"total": 200})
	if err != nil {
		log.Fatal(err)
	}

	out, _ := run.NodeResult("result")
	fmt.Println(run.Status())
	fmt.Println(out.(domain.OutputValue).Value)
	// Output:
	// succeeded
	// 180
}

// ExampleWithTool wires a local capability into a Capability node.
func ExampleWithTool() {
	engine, err := lattice.New(lattice.WithTool("greet", func(_ context.Context, params map[string]any) (any, error) {
		return fmt.Sprintf("hello, %v", params["name"]), nil
	}))
	if err != nil {
		log.Fatal(err)
	}

	graph := &domain.Graph{
		ID: "greeting",
		Nodes: []domain.Node{
			{ID: "name", Type: domain.NodeTypeInput, Data: map[string]any{"defaultValue": "world"}},
			{ID: "greet", Type: domain.NodeTypeCapability, Data: map[string]any{
				"capabilityType": "tool",
				"capabilityId":   "greet",
				"parameters":     map[string]any{"name": "{{name}}"},
			}},
		},
		Edges: []domain.Edge{{ID: "e", Source: "name", Target: "greet"}},
	}

	run, err := engine.Run(context.Background(), graph, nil)
	if err != nil {
		log.Fatal(err)
	}
	greeting, _ := run.NodeResult("greet")
	fmt.Println(greeting)
	// Output:
	// hello, world
}
