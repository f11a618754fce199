package executor

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/expr"
)

// Condition types.
const (
	ConditionEquals   = "equals"
	ConditionContains = "contains"
	ConditionGreater  = "greater"
	ConditionLess     = "less"
	ConditionCustom   = "custom"
)

// ConditionConfig is the payload of a condition node.
type ConditionConfig struct {
	ConditionType    string `json:"conditionType"`
	LeftValue        any    `json:"leftValue"`
	RightValue       any    `json:"rightValue"`
	CustomExpression string `json:"customExpression"`
}

// ConditionExecutor evaluates a comparison and records the chosen branch as
// "{id}_branch" ("true" or "false"). Operands may reference variables with
// {{name}}.
type ConditionExecutor struct {
	Evaluator expr.Evaluator
}

func (e *ConditionExecutor) RequiredInputs(domain.Node) []string { return nil }

func (e *ConditionExecutor) ProducedOutputs(node domain.Node) []string {
	return []string{domain.BranchKey(node.ID)}
}

func (e *ConditionExecutor) Execute(ctx context.Context, node domain.Node, run *domain.ExecutionContext, inputs Inputs) (any, error) {
	var cfg ConditionConfig
	if err := decodeData(node, &cfg); err != nil {
		return nil, err
	}
	ok, err := e.evaluate(ctx, node, cfg, inputs)
	if err != nil {
		return nil, err
	}
	branch := domain.HandleFalse
	if ok {
		branch = domain.HandleTrue
	}
	run.SetNodeVariable(node.ID, domain.BranchKey(node.ID), branch)
	return ok, nil
}

func (e *ConditionExecutor) evaluate(ctx context.Context, node domain.Node, cfg ConditionConfig, inputs Inputs) (bool, error) {
	vars := map[string]any(inputs)
	kind := strings.ToLower(cfg.ConditionType)
	if kind == ConditionCustom {
		if strings.TrimSpace(cfg.CustomExpression) == "" {
			return false, invalidInput(node, "custom condition without customExpression")
		}
		if e.Evaluator == nil {
			return false, invalidInput(node, "no expression evaluator configured")
		}
		return expr.EvalBool(ctx, e.Evaluator, cfg.CustomExpression, vars)
	}

	left := expr.Resolve(cfg.LeftValue, vars)
	right := expr.Resolve(cfg.RightValue, vars)

	switch kind {
	case ConditionEquals:
		return equal(left, right), nil
	case ConditionContains:
		return contains(node, left, right)
	case ConditionGreater, ConditionLess:
		l, err := toNumber(left)
		if err != nil {
			return false, invalidInput(node, "left operand: %v", err)
		}
		r, err := toNumber(right)
		if err != nil {
			return false, invalidInput(node, "right operand: %v", err)
		}
		if kind == ConditionGreater {
			return l > r, nil
		}
		return l < r, nil
	default:
		return false, invalidInput(node, "unknown conditionType %q", cfg.ConditionType)
	}
}

// equal is deep equality where numbers compare by value (int64(5) == 5.0).
func equal(a, b any) bool {
	if isNumeric(a) && isNumeric(b) {
		x, errA := cast.ToFloat64E(a)
		y, errB := cast.ToFloat64E(b)
		return errA == nil && errB == nil && x == y
	}
	as, aok := toSlice(a)
	bs, bok := toSlice(b)
	if aok && bok {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !equal(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if aok && bok {
		if len(am) != len(bm) {
			return false
		}
		for k, v := range am {
			w, ok := bm[k]
			if !ok || !equal(v, w) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// contains is substring matching; both operands must be strings.
func contains(node domain.Node, haystack, needle any) (bool, error) {
	s, ok := haystack.(string)
	if !ok {
		return false, invalidInput(node, "contains: left operand must be a string, got %T", haystack)
	}
	sub, ok := needle.(string)
	if !ok {
		return false, invalidInput(node, "contains: right operand must be a string, got %T", needle)
	}
	return strings.Contains(s, sub), nil
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return true
	}
	return false
}

func toNumber(v any) (float64, error) {
	if v == nil {
		return 0, errNilOperand
	}
	if b, ok := v.(bool); ok {
		return 0, &operandError{value: b}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, &operandError{value: v}
	}
	return f, nil
}

var errNilOperand = &operandError{}

type operandError struct{ value any }

func (e *operandError) Error() string {
	if e.value == nil {
		return "operand is empty"
	}
	return "cannot compare non-numeric value " + cast.ToString(e.value)
}
