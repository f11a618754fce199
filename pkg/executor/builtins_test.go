package executor_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/executor"
	"github.com/aretw0/lattice/pkg/expr"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runSingle executes one node through the default registry with vars as the
// run variables and upstream bound as its "input".
func runSingle(t *testing.T, reg *executor.Registry, node domain.Node, vars map[string]any, upstream any) *domain.ExecutionContext {
	t.Helper()
	run := newRun(vars)
	g := &domain.Graph{Nodes: []domain.Node{node}}
	if upstream != nil {
		g.Nodes = append(g.Nodes, domain.Node{ID: "up", Type: "stub"})
		g.Edges = []domain.Edge{{ID: "e", Source: "up", Target: node.ID}}
		run.SetNodeResult("up", upstream)
	}
	idx := g.Index()
	exec, err := reg.Lookup(node.Type)
	require.NoError(t, err)
	executor.Run(context.Background(), exec, node, run, idx, idx.Incoming[node.ID])
	return run
}

func result(t *testing.T, run *domain.ExecutionContext, id string) any {
	t.Helper()
	require.Equal(t, domain.NodeSucceeded, run.NodeStatus(id), "node error: %v", run.NodeError(id))
	v, _ := run.NodeResult(id)
	return v
}

func TestInputExecutor(t *testing.T) {
	reg := executor.NewDefaultRegistry()
	node := func(data map[string]any) domain.Node {
		return domain.Node{ID: "in", Type: domain.NodeTypeInput, Data: data}
	}

	t.Run("external value wins over default", func(t *testing.T) {
		run := runSingle(t, reg, node(map[string]any{"variable": "name", "defaultValue": "anon"}), map[string]any{"name": "ada"}, nil)
		assert.Equal(t, "ada", result(t, run, "in"))
	})

	t.Run("default seeds variable", func(t *testing.T) {
		run := runSingle(t, reg, node(map[string]any{"variable": "name", "defaultValue": "anon"}), nil, nil)
		assert.Equal(t, "anon", result(t, run, "in"))
		v, ok := run.Variable("name")
		assert.True(t, ok)
		assert.Equal(t, "anon", v)
	})

	t.Run("variable defaults to node id", func(t *testing.T) {
		run := runSingle(t, reg, node(map[string]any{"defaultValue": 3}), nil, nil)
		v, _ := run.Variable("in")
		assert.Equal(t, 3, v)
	})

	t.Run("string literal parsed for typed input", func(t *testing.T) {
		run := runSingle(t, reg, node(map[string]any{"variable": "nums", "type": "[int]", "defaultValue": "[1, 2, 3]"}), nil, nil)
		assert.Equal(t, []any{int64(1), int64(2), int64(3)}, result(t, run, "in"))
	})

	t.Run("external string coerced", func(t *testing.T) {
		run := runSingle(t, reg, node(map[string]any{"variable": "n", "type": "number"}), map[string]any{"n": "7"}, nil)
		assert.Equal(t, int64(7), result(t, run, "in"))
	})

	t.Run("type mismatch", func(t *testing.T) {
		run := runSingle(t, reg, node(map[string]any{"variable": "n", "type": "int", "defaultValue": true}), nil, nil)
		assertKind(t, run, "in", domain.KindInvalidInput)
	})

	t.Run("no value and no default", func(t *testing.T) {
		run := runSingle(t, reg, node(map[string]any{"variable": "n"}), nil, nil)
		assertKind(t, run, "in", domain.KindInvalidInput)
	})

	t.Run("unknown type", func(t *testing.T) {
		run := runSingle(t, reg, node(map[string]any{"defaultValue": 1, "type": "date"}), nil, nil)
		assertKind(t, run, "in", domain.KindInvalidInput)
	})
}

func TestOutputExecutor(t *testing.T) {
	reg := executor.NewDefaultRegistry()

	run := runSingle(t, reg, domain.Node{ID: "out", Type: domain.NodeTypeOutput}, nil, 10)
	assert.Equal(t, domain.OutputValue{Kind: domain.OutputResult, Value: 10}, result(t, run, "out"))

	run = runSingle(t, reg, domain.Node{ID: "out", Type: domain.NodeTypeOutput, Data: map[string]any{"outputType": "error"}}, nil, "bad")
	assert.Equal(t, domain.OutputValue{Kind: domain.OutputError, Value: "bad"}, result(t, run, "out"))

	run = runSingle(t, reg, domain.Node{ID: "out", Type: domain.NodeTypeOutput}, nil, nil)
	assertKind(t, run, "out", domain.KindInvalidInput)

	run = runSingle(t, reg, domain.Node{ID: "out", Type: domain.NodeTypeOutput, Data: map[string]any{"outputType": "log"}}, nil, 1)
	assertKind(t, run, "out", domain.KindInvalidInput)
}

func TestConditionExecutor(t *testing.T) {
	vars := map[string]any{
		"count": 5,
		"ratio": 2.5,
		"name":  "lattice engine",
		"tags":  []any{"a", "b"},
	}
	tests := []struct {
		name string
		data map[string]any
		want bool
		kind domain.ErrorKind
	}{
		{"equals literal", map[string]any{"conditionType": "equals", "leftValue": 5, "rightValue": 5}, true, ""},
		{"equals interpolated number", map[string]any{"conditionType": "equals", "leftValue": "{{count}}", "rightValue": 5.0}, true, ""},
		{"equals strings", map[string]any{"conditionType": "equals", "leftValue": "{{name}}", "rightValue": "lattice"}, false, ""},
		{"equals arrays", map[string]any{"conditionType": "equals", "leftValue": "{{tags}}", "rightValue": []any{"a", "b"}}, true, ""},
		{"string and number differ", map[string]any{"conditionType": "equals", "leftValue": "5", "rightValue": 5}, false, ""},
		{"contains substring", map[string]any{"conditionType": "contains", "leftValue": "{{name}}", "rightValue": "engine"}, true, ""},
		{"contains substring missing", map[string]any{"conditionType": "contains", "leftValue": "{{name}}", "rightValue": "graph"}, false, ""},
		{"contains array operand", map[string]any{"conditionType": "contains", "leftValue": []any{1, 2}, "rightValue": 1}, false, domain.KindInvalidInput},
		{"contains interpolated array", map[string]any{"conditionType": "contains", "leftValue": "{{tags}}", "rightValue": "a"}, false, domain.KindInvalidInput},
		{"contains number needle", map[string]any{"conditionType": "contains", "leftValue": "{{name}}", "rightValue": 5}, false, domain.KindInvalidInput},
		{"contains non-string", map[string]any{"conditionType": "contains", "leftValue": 5, "rightValue": "5"}, false, domain.KindInvalidInput},
		{"greater", map[string]any{"conditionType": "greater", "leftValue": "{{count}}", "rightValue": "{{ratio}}"}, true, ""},
		{"less with numeric string", map[string]any{"conditionType": "less", "leftValue": "3", "rightValue": "{{count}}"}, true, ""},
		{"greater non-numeric", map[string]any{"conditionType": "greater", "leftValue": "abc", "rightValue": 1}, false, domain.KindInvalidInput},
		{"custom", map[string]any{"conditionType": "custom", "customExpression": "count > 3 && length(tags) == 2"}, true, ""},
		{"custom non-boolean", map[string]any{"conditionType": "custom", "customExpression": "count + 1"}, false, domain.KindNodeExecution},
		{"unknown type", map[string]any{"conditionType": "regex"}, false, domain.KindInvalidInput},
	}
	reg := executor.NewDefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := runSingle(t, reg, domain.Node{ID: "c", Type: domain.NodeTypeCondition, Data: tt.data}, vars, nil)
			if tt.kind != "" {
				assertKind(t, run, "c", tt.kind)
				_, ok := run.Variable("c_branch")
				assert.False(t, ok)
				return
			}
			assert.Equal(t, tt.want, result(t, run, "c"))
			branch, _ := run.Variable("c_branch")
			if tt.want {
				assert.Equal(t, "true", branch)
			} else {
				assert.Equal(t, "false", branch)
			}
		})
	}
}

func TestConditionExecutor_Lua(t *testing.T) {
	reg := executor.NewDefaultRegistry(executor.WithEvaluator(expr.NewLua()))
	node := domain.Node{ID: "c", Type: domain.NodeTypeCondition, Data: map[string]any{
		"conditionType":    "custom",
		"customExpression": "#input == 3 and input[3] == 'z'",
	}}
	run := runSingle(t, reg, node, nil, []any{"x", "y", "z"})
	assert.Equal(t, true, result(t, run, "c"))
}

func TestTransformExecutor(t *testing.T) {
	reg := executor.NewDefaultRegistry()
	transform := func(data map[string]any) domain.Node {
		return domain.Node{ID: "t", Type: domain.NodeTypeTransform, Data: data}
	}
	nums := []any{1, 2, 3}

	t.Run("map", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "map", "transformFunction": "item * 2"}), nil, nums)
		assert.Equal(t, []any{int64(2), int64(4), int64(6)}, result(t, run, "t"))
	})

	t.Run("map with index and variables", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "map", "transformFunction": "item * factor + index"}), map[string]any{"factor": 10}, nums)
		assert.Equal(t, []any{int64(10), int64(21), int64(32)}, result(t, run, "t"))
	})

	t.Run("filter", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "filter", "transformFunction": "item % 2 == 1"}), nil, nums)
		assert.Equal(t, []any{1, 3}, result(t, run, "t"))
	})

	t.Run("reduce with initial value", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "reduce", "transformFunction": "acc + item", "initialValue": 10}), nil, nums)
		assert.Equal(t, int64(16), result(t, run, "t"))
	})

	t.Run("reduce with literal initial value", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "reduce", "transformFunction": "acc + item", "initialValue": "0"}), nil, nums)
		assert.Equal(t, int64(6), result(t, run, "t"))
	})

	t.Run("reduce folds from first element", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "reduce", "transformFunction": "max(acc, item)"}), nil, []any{4, 9, 2})
		assert.Equal(t, int64(9), result(t, run, "t"))
	})

	t.Run("reduce of empty array", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "reduce", "transformFunction": "acc + item"}), nil, []any{})
		assertKind(t, run, "t", domain.KindInvalidInput)
	})

	t.Run("non-array input", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "map", "transformFunction": "item"}), nil, "abc")
		assertKind(t, run, "t", domain.KindNodeExecution)
		assert.ErrorIs(t, run.NodeError("t"), domain.ErrNotArray)
	})

	t.Run("input variable", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "map", "transformFunction": "upper(item)", "inputVariable": "names"}), map[string]any{"names": []string{"a", "b"}}, nil)
		assert.Equal(t, []any{"A", "B"}, result(t, run, "t"))
	})

	t.Run("missing input", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "map", "transformFunction": "item"}), nil, nil)
		assertKind(t, run, "t", domain.KindInvalidInput)
	})

	t.Run("custom", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "custom", "transformFunction": `{ total = length(input), first = input[0] }`}), nil, nums)
		assert.Equal(t, map[string]any{"total": int64(3), "first": int64(1)}, result(t, run, "t"))
	})

	t.Run("expression error", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "map", "transformFunction": "item +"}), nil, nums)
		assertKind(t, run, "t", domain.KindNodeExecution)
	})
	t.Run("item binding shadows variable", func(t *testing.T) {
		run := runSingle(t, reg, transform(map[string]any{"transformType": "map", "transformFunction": "item"}), map[string]any{"item": "outer"}, nums)
		assert.Equal(t, []any{int64(1), int64(2), int64(3)}, result(t, run, "t"))
	})
}

func TestTransformExecutor_LargeArray(t *testing.T) {
	items := make([]any, 20000)
	for i := range items {
		items[i] = i
	}
	tests := []struct {
		name string
		reg  *executor.Registry
		data map[string]any
		want any
	}{
		{"hcl map", executor.NewDefaultRegistry(), map[string]any{"transformType": "map", "transformFunction": "item + 1"}, nil},
		{"hcl filter", executor.NewDefaultRegistry(), map[string]any{"transformType": "filter", "transformFunction": "item % 2 == 0"}, nil},
		{"hcl reduce", executor.NewDefaultRegistry(), map[string]any{"transformType": "reduce", "transformFunction": "acc + item", "initialValue": 0}, int64(199990000)},
		{"lua reduce", executor.NewDefaultRegistry(executor.WithEvaluator(expr.NewLua())), map[string]any{"transformType": "reduce", "transformFunction": "acc + item", "initialValue": 0}, int64(199990000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			node := domain.Node{ID: "t", Type: domain.NodeTypeTransform, Data: tt.data}
			run := runSingle(t, tt.reg, node, nil, items)
			got := result(t, run, "t")
			assert.Less(t, time.Since(start), 15*time.Second, "evaluation must stay linear in the array length")
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCapabilityExecutor(t *testing.T) {
	caps := registry.NewRegistry()
	caps.RegisterTool("weather", func(_ context.Context, params map[string]any) (any, error) {
		return map[string]any{"city": params["city"], "days": params["days"]}, nil
	})
	reg := executor.NewDefaultRegistry(executor.WithInvoker(caps))
	node := func(data map[string]any) domain.Node {
		return domain.Node{ID: "cap", Type: domain.NodeTypeCapability, Data: data}
	}

	run := runSingle(t, reg, node(map[string]any{
		"capabilityType": "tool",
		"capabilityId":   "weather",
		"parameters":     map[string]any{"city": "{{city}}", "days": "{{days}}"},
	}), map[string]any{"city": "Porto", "days": 3}, nil)
	assert.Equal(t, map[string]any{"city": "Porto", "days": 3}, result(t, run, "cap"))

	run = runSingle(t, reg, node(map[string]any{"capabilityType": "tool", "capabilityId": "missing"}), nil, nil)
	assertKind(t, run, "cap", domain.KindNodeExecution)
	assert.ErrorIs(t, run.NodeError("cap"), domain.ErrCapabilityNotFound)

	run = runSingle(t, reg, node(map[string]any{"capabilityType": "webhook", "capabilityId": "weather"}), nil, nil)
	assertKind(t, run, "cap", domain.KindInvalidInput)

	bare := executor.NewDefaultRegistry()
	run = runSingle(t, bare, node(map[string]any{"capabilityType": "prompt", "capabilityId": "greet"}), nil, nil)
	assert.ErrorIs(t, run.NodeError("cap"), domain.ErrCapabilityNotFound)
}
