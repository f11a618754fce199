package expr

import (
	"context"
	"maps"
)

// Program is an expression prepared once against a fixed scope and then
// evaluated repeatedly with a few per-call bindings, as transforms do for
// every array item. Bindings shadow scope variables of the same name.
type Program interface {
	Eval(ctx context.Context, bindings map[string]any) (any, error)
	// Close releases the resources held by the program.
	Close()
}

// Compiler is implemented by evaluators that can prepare a Program.
type Compiler interface {
	Compile(ctx context.Context, expression string, scope map[string]any) (Program, error)
}

// Prepare returns a Program for expression. Evaluators that do not
// implement Compiler are wrapped so every call evaluates against a shallow
// copy of scope plus the bindings.
func Prepare(ctx context.Context, ev Evaluator, expression string, scope map[string]any) (Program, error) {
	if c, ok := ev.(Compiler); ok {
		return c.Compile(ctx, expression, scope)
	}
	return &evalProgram{ev: ev, expression: expression, scope: scope}, nil
}

// EvalProgramBool evaluates a program that must produce a boolean.
func EvalProgramBool(ctx context.Context, p Program, expression string, bindings map[string]any) (bool, error) {
	v, err := p.Eval(ctx, bindings)
	if err != nil {
		return false, err
	}
	return toBool(expression, v)
}

type evalProgram struct {
	ev         Evaluator
	expression string
	scope      map[string]any
}

func (p *evalProgram) Eval(ctx context.Context, bindings map[string]any) (any, error) {
	vars := maps.Clone(p.scope)
	if vars == nil {
		vars = make(map[string]any, len(bindings))
	}
	maps.Copy(vars, bindings)
	return p.ev.Eval(ctx, p.expression, vars)
}

func (p *evalProgram) Close() {}
