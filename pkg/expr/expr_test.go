package expr_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHCL_Eval(t *testing.T) {
	ev := expr.NewHCL()
	vars := map[string]any{
		"item":          3,
		"price":         2.5,
		"name":          "admin",
		"input":         []any{1, 2, 3},
		"user":          map[string]any{"age": 30},
		"node-1_result": "ok",
	}

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"arithmetic keeps integers", "item * 2", int64(6)},
		{"fractional numbers", "price * 2 + 0.5", 5.5},
		{"comparison", "item > 2", true},
		{"string function", `upper(name) == "ADMIN"`, true},
		{"collection length", "length(input)", int64(3)},
		{"nested attribute", "user.age >= 18", true},
		{"non-identifier variable", `vars["node-1_result"]`, "ok"},
		{"for expression", "[for x in input : x * 10]", []any{int64(10), int64(20), int64(30)}},
		{"conditional", `item % 2 == 0 ? "even" : "odd"`, "odd"},
		{"null", "null", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Eval(context.Background(), tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHCL_Errors(t *testing.T) {
	ev := expr.NewHCL()

	_, err := ev.Eval(context.Background(), "item +", nil)
	assert.ErrorContains(t, err, "parse expression")

	_, err = ev.Eval(context.Background(), "missing + 1", map[string]any{})
	assert.ErrorContains(t, err, "evaluate expression")

	_, err = ev.Eval(context.Background(), "file(\"/etc/passwd\")", nil)
	assert.Error(t, err, "host functions must not be reachable")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ev.Eval(ctx, "1", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLua_Eval(t *testing.T) {
	ev := expr.NewLua()
	vars := map[string]any{
		"item":  3,
		"input": []any{1, 2, 3},
		"name":  "admin",
		"user":  map[string]any{"age": 30},
	}

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"arithmetic", "item * 2", int64(6)},
		{"float", "item / 2", 1.5},
		{"comparison", "item > 2", true},
		{"string library", `string.upper(name)`, "ADMIN"},
		{"table field", "user.age", int64(30)},
		{"array is one-based", "input[1]", int64(1)},
		{"chunk with return", "local s = 0 for _, v in ipairs(input) do s = s + v end return s", int64(6)},
		{"sequence result", "{item, item + 1}", []any{int64(3), int64(4)}},
		{"empty table", "{}", []any{}},
		{"map result", "{a = 1}", map[string]any{"a": int64(1)}},
		{"nil", "nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Eval(context.Background(), tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLua_Sandbox(t *testing.T) {
	ev := expr.NewLua()
	for _, src := range []string{
		`os.execute("true")`,
		`io.open("/etc/passwd")`,
		`require("os")`,
		`dofile("/etc/passwd")`,
		`load("return 1")()`,
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ev.Eval(context.Background(), src, nil)
			assert.Error(t, err)
		})
	}
}

func TestLua_Timeout(t *testing.T) {
	ev := &expr.Lua{Timeout: 50 * time.Millisecond}
	_, err := ev.Eval(context.Background(), "while true do end", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = expr.NewLua().Eval(context.Background(), "1 + 1", nil)
	assert.NoError(t, err, "default deadline leaves short scripts alone")
}

func TestPrepare(t *testing.T) {
	scope := map[string]any{"factor": 3, "item": "shadowed", "input": []any{1, 2}}
	evaluators := map[string]expr.Evaluator{
		"hcl": expr.NewHCL(),
		"lua": expr.NewLua(),
		"plain": expr.EvaluatorFunc(func(ctx context.Context, expression string, vars map[string]any) (any, error) {
			return expr.NewHCL().Eval(ctx, expression, vars)
		}),
	}
	for name, ev := range evaluators {
		t.Run(name, func(t *testing.T) {
			prog, err := expr.Prepare(context.Background(), ev, "item * factor", scope)
			require.NoError(t, err)
			defer prog.Close()

			for i := 1; i <= 3; i++ {
				got, err := prog.Eval(context.Background(), map[string]any{"item": i})
				require.NoError(t, err)
				assert.Equal(t, int64(i*3), got)
			}
			assert.Equal(t, "shadowed", scope["item"], "bindings do not leak into the scope")

			ok, err := expr.EvalProgramBool(context.Background(), prog, "item * factor", map[string]any{"item": 1})
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPrepare_ReusesScope(t *testing.T) {
	big := make([]any, 20000)
	for i := range big {
		big[i] = map[string]any{"id": i, "tags": []any{"a", "b"}}
	}
	prog, err := expr.Prepare(context.Background(), expr.NewHCL(), "item + length(input)", map[string]any{"input": big})
	require.NoError(t, err)
	defer prog.Close()

	start := time.Now()
	for i := 0; i < len(big); i++ {
		_, err := prog.Eval(context.Background(), map[string]any{"item": i})
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 10*time.Second, "per-item evaluation must not reconvert the scope")
}

func TestPrepare_Errors(t *testing.T) {
	_, err := expr.Prepare(context.Background(), expr.NewHCL(), "item +", nil)
	assert.ErrorContains(t, err, "parse expression")

	_, err = expr.Prepare(context.Background(), expr.NewLua(), "return return", nil)
	assert.ErrorContains(t, err, "parse expression")

	prog, err := expr.Prepare(context.Background(), expr.NewHCL(), "item + 1", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = prog.Eval(ctx, map[string]any{"item": 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvalBool(t *testing.T) {
	ev := expr.NewHCL()
	ok, err := expr.EvalBool(context.Background(), ev, "x == 1", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = expr.EvalBool(context.Background(), ev, `"false"`, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = expr.EvalBool(context.Background(), ev, "1 + 1", nil)
	assert.ErrorContains(t, err, "did not evaluate to a boolean")
}

func TestNew(t *testing.T) {
	ev, err := expr.New("")
	require.NoError(t, err)
	assert.IsType(t, &expr.HCL{}, ev)

	ev, err = expr.New("LUA")
	require.NoError(t, err)
	assert.IsType(t, &expr.Lua{}, ev)

	_, err = expr.New("javascript")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	vars := map[string]any{
		"count": 5,
		"name":  "ada",
		"items": []any{1, 2},
		"user":  map[string]any{"email": "ada@example.com"},
	}

	assert.Equal(t, 5, expr.Resolve("{{count}}", vars), "whole reference keeps its type")
	assert.Equal(t, 5, expr.Resolve(" {{ count }} ", vars))
	assert.Equal(t, []any{1, 2}, expr.Resolve("{{items}}", vars))
	assert.Equal(t, "hello ada (5)", expr.Resolve("hello {{name}} ({{count}})", vars))
	assert.Equal(t, "ada@example.com", expr.Resolve("{{user.email}}", vars))
	assert.Equal(t, "{{missing}}", expr.Resolve("{{missing}}", vars))
	assert.Equal(t, 42, expr.Resolve(42, vars))
}

func TestResolveAll(t *testing.T) {
	vars := map[string]any{"city": "Lisbon", "days": 3}
	got := expr.ResolveAll(map[string]any{
		"query": "weather in {{city}}",
		"days":  "{{days}}",
		"tags":  []any{"{{city}}", true},
	}, vars)
	assert.Equal(t, map[string]any{
		"query": "weather in Lisbon",
		"days":  3,
		"tags":  []any{"Lisbon", true},
	}, got)
}

func TestConvertRoundTrip(t *testing.T) {
	in := map[string]any{
		"s": "x",
		"n": int64(7),
		"f": 1.25,
		"b": true,
		"l": []any{int64(1), "two"},
		"o": map[string]any{"k": nil},
	}
	cv, err := expr.ToCty(in)
	require.NoError(t, err)
	out, err := expr.FromCty(cv)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	type point struct {
		X int `json:"x"`
	}
	cv, err = expr.ToCty(point{X: 2})
	require.NoError(t, err)
	out, err = expr.FromCty(cv)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": int64(2)}, out)
}
