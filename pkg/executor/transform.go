package executor

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/expr"
)

// Transform types.
const (
	TransformMap    = "map"
	TransformFilter = "filter"
	TransformReduce = "reduce"
	TransformCustom = "custom"
)

// Names bound in the scope of a transform function.
const (
	ItemName  = "item"
	IndexName = "index"
	AccName   = "acc"
)

// TransformConfig is the payload of a transform node.
type TransformConfig struct {
	TransformType     string `json:"transformType"`
	TransformFunction string `json:"transformFunction"`
	InitialValue      any    `json:"initialValue"`
	// InputVariable selects the variable holding the array. Defaults to "input".
	InputVariable string `json:"inputVariable"`
}

// TransformExecutor applies an expression over an array (map, filter,
// reduce) or over its whole input (custom).
type TransformExecutor struct {
	Evaluator expr.Evaluator
}

func (e *TransformExecutor) RequiredInputs(node domain.Node) []string {
	var cfg TransformConfig
	if err := decodeData(node, &cfg); err != nil {
		return nil
	}
	if strings.ToLower(cfg.TransformType) == TransformCustom {
		return nil
	}
	return []string{cfg.source()}
}

func (e *TransformExecutor) ProducedOutputs(domain.Node) []string { return nil }

func (e *TransformExecutor) Execute(ctx context.Context, node domain.Node, _ *domain.ExecutionContext, inputs Inputs) (any, error) {
	var cfg TransformConfig
	if err := decodeData(node, &cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.TransformFunction) == "" {
		return nil, invalidInput(node, "transform without transformFunction")
	}
	if e.Evaluator == nil {
		return nil, invalidInput(node, "no expression evaluator configured")
	}

	kind := strings.ToLower(cfg.TransformType)
	switch kind {
	case TransformCustom:
		scope := maps.Clone(inputs)
		if v, ok := inputs[cfg.source()]; ok {
			scope[InputName] = v
		}
		return e.Evaluator.Eval(ctx, cfg.TransformFunction, scope)
	case TransformMap, TransformFilter, TransformReduce:
	default:
		return nil, invalidInput(node, "unknown transformType %q", cfg.TransformType)
	}

	raw := inputs[cfg.source()]
	items, ok := toSlice(raw)
	if !ok {
		return nil, fmt.Errorf("%s over %q (%T): %w", kind, cfg.source(), raw, domain.ErrNotArray)
	}

	prog, err := expr.Prepare(ctx, e.Evaluator, cfg.TransformFunction, inputs)
	if err != nil {
		return nil, err
	}
	defer prog.Close()

	switch kind {
	case TransformMap:
		return mapItems(ctx, prog, items)
	case TransformFilter:
		return filterItems(ctx, prog, cfg.TransformFunction, items)
	default:
		return reduceItems(ctx, node, prog, cfg, items)
	}
}

func mapItems(ctx context.Context, prog expr.Program, items []any) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		v, err := prog.Eval(ctx, itemBindings(item, i))
		if err != nil {
			return nil, fmt.Errorf("map item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func filterItems(ctx context.Context, prog expr.Program, expression string, items []any) ([]any, error) {
	out := make([]any, 0, len(items))
	for i, item := range items {
		keep, err := expr.EvalProgramBool(ctx, prog, expression, itemBindings(item, i))
		if err != nil {
			return nil, fmt.Errorf("filter item %d: %w", i, err)
		}
		if keep {
			out = append(out, item)
		}
	}
	return out, nil
}

func reduceItems(ctx context.Context, node domain.Node, prog expr.Program, cfg TransformConfig, items []any) (any, error) {
	acc, start := cfg.InitialValue, 0
	if s, ok := acc.(string); ok {
		if parsed, err := ParseLiteral(s); err == nil {
			acc = parsed
		}
	}
	if acc == nil {
		if len(items) == 0 {
			return nil, invalidInput(node, "reduce of empty array with no initialValue")
		}
		acc, start = items[0], 1
	}
	for i := start; i < len(items); i++ {
		bindings := itemBindings(items[i], i)
		bindings[AccName] = acc
		v, err := prog.Eval(ctx, bindings)
		if err != nil {
			return nil, fmt.Errorf("reduce item %d: %w", i, err)
		}
		acc = v
	}
	return acc, nil
}

// itemBindings holds the per-item names; the node inputs are bound once
// when the program is prepared.
func itemBindings(item any, index int) map[string]any {
	return map[string]any{ItemName: item, IndexName: index}
}

func (c TransformConfig) source() string {
	if c.InputVariable != "" {
		return c.InputVariable
	}
	return InputName
}
