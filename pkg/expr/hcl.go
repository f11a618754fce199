package expr

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// VarsName is the object exposing every variable, including those whose
// names are not valid identifiers: vars["node-1_result"].
const VarsName = "vars"

// HCL evaluates HCL native-syntax expressions.
type HCL struct {
	functions map[string]function.Function
}

// NewHCL returns an HCL evaluator with the default function table.
func NewHCL() *HCL {
	return &HCL{functions: DefaultFunctions()}
}

// DefaultFunctions returns the pure functions available to HCL expressions.
func DefaultFunctions() map[string]function.Function {
	return map[string]function.Function{
		"abs":        stdlib.AbsoluteFunc,
		"ceil":       stdlib.CeilFunc,
		"floor":      stdlib.FloorFunc,
		"max":        stdlib.MaxFunc,
		"min":        stdlib.MinFunc,
		"int":        stdlib.IntFunc,
		"upper":      stdlib.UpperFunc,
		"lower":      stdlib.LowerFunc,
		"strlen":     stdlib.StrlenFunc,
		"substr":     stdlib.SubstrFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"replace":    stdlib.ReplaceFunc,
		"split":      stdlib.SplitFunc,
		"join":       stdlib.JoinFunc,
		"format":     stdlib.FormatFunc,
		"regex":      stdlib.RegexFunc,
		"length":     stdlib.LengthFunc,
		"contains":   stdlib.ContainsFunc,
		"concat":     stdlib.ConcatFunc,
		"keys":       stdlib.KeysFunc,
		"values":     stdlib.ValuesFunc,
		"merge":      stdlib.MergeFunc,
		"range":      stdlib.RangeFunc,
		"reverse":    stdlib.ReverseListFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"jsondecode": stdlib.JSONDecodeFunc,
		"tostring":   stdlib.MakeToFunc(cty.String),
		"tonumber":   stdlib.MakeToFunc(cty.Number),
		"tobool":     stdlib.MakeToFunc(cty.Bool),
	}
}

// Eval parses and evaluates expression with vars in scope.
func (h *HCL) Eval(ctx context.Context, expression string, vars map[string]any) (any, error) {
	p, err := h.Compile(ctx, expression, vars)
	if err != nil {
		return nil, err
	}
	return p.Eval(ctx, nil)
}

// Compile parses expression and converts scope once. Bindings passed to
// the program are top-level variables only; they are not added to vars.
func (h *HCL) Compile(ctx context.Context, expression string, scope map[string]any) (Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, diags := hclsyntax.ParseExpression([]byte(expression), "expression", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse expression: %w", diags)
	}
	evalCtx, err := h.evalContext(scope)
	if err != nil {
		return nil, err
	}
	return &hclProgram{expr: parsed, evalCtx: evalCtx}, nil
}

func (h *HCL) evalContext(vars map[string]any) (*hcl.EvalContext, error) {
	scope := make(map[string]cty.Value, len(vars)+1)
	all := make(map[string]cty.Value, len(vars))
	for name, v := range vars {
		cv, err := ToCty(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		all[name] = cv
		if hclsyntax.ValidIdentifier(name) && name != VarsName {
			scope[name] = cv
		}
	}
	scope[VarsName] = cty.ObjectVal(all)
	return &hcl.EvalContext{Variables: scope, Functions: h.functions}, nil
}

type hclProgram struct {
	expr    hclsyntax.Expression
	evalCtx *hcl.EvalContext
}

func (p *hclProgram) Eval(ctx context.Context, bindings map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	evalCtx := p.evalCtx
	if len(bindings) > 0 {
		evalCtx = p.evalCtx.NewChild()
		evalCtx.Variables = make(map[string]cty.Value, len(bindings))
		for name, v := range bindings {
			cv, err := ToCty(v)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", name, err)
			}
			evalCtx.Variables[name] = cv
		}
	}
	val, diags := p.expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluate expression: %w", diags)
	}
	return FromCty(val)
}

func (p *hclProgram) Close() {}
