package expr

import (
	"context"
	"fmt"
	"strings"
)

// Evaluator evaluates an expression against a set of named variables.
type Evaluator interface {
	Eval(ctx context.Context, expression string, vars map[string]any) (any, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, expression string, vars map[string]any) (any, error)

// Eval calls f.
func (f EvaluatorFunc) Eval(ctx context.Context, expression string, vars map[string]any) (any, error) {
	return f(ctx, expression, vars)
}

// EvalBool evaluates an expression that must produce a boolean.
// The strings "true" and "false" are accepted as booleans.
func EvalBool(ctx context.Context, ev Evaluator, expression string, vars map[string]any) (bool, error) {
	v, err := ev.Eval(ctx, expression, vars)
	if err != nil {
		return false, err
	}
	return toBool(expression, v)
}

func toBool(expression string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("expression %q did not evaluate to a boolean (got %T)", expression, v)
}

// Evaluator names accepted by New.
const (
	NameHCL = "hcl"
	NameLua = "lua"
)

// New returns the evaluator registered under name ("hcl" or "lua").
// An empty name selects HCL.
func New(name string) (Evaluator, error) {
	switch strings.ToLower(name) {
	case "", NameHCL:
		return NewHCL(), nil
	case NameLua:
		return NewLua(), nil
	default:
		return nil, fmt.Errorf("unknown expression evaluator %q", name)
	}
}
