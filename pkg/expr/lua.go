package expr

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultLuaTimeout bounds a single Lua evaluation when the caller's
// context carries no earlier deadline.
const DefaultLuaTimeout = 10 * time.Second

// Lua evaluates Lua chunks in a stripped-down state. A bare expression is
// evaluated as `return <expression>`; anything else runs as a chunk whose
// first return value is the result.
type Lua struct {
	// Timeout bounds each evaluation. Zero means DefaultLuaTimeout; a
	// negative value disables the bound.
	Timeout time.Duration
}

// NewLua returns a Lua evaluator.
func NewLua() *Lua { return &Lua{} }

var luaLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

var luaBlocked = []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "collectgarbage", "print"}

// Eval runs expression with vars bound as globals.
func (l *Lua) Eval(ctx context.Context, expression string, vars map[string]any) (any, error) {
	p, err := l.Compile(ctx, expression, vars)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Eval(ctx, nil)
}

// Compile loads expression into a fresh state with scope bound as globals.
// The program keeps that state until Close and must not be shared between
// goroutines.
func (l *Lua) Compile(ctx context.Context, expression string, scope map[string]any) (Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range luaLibs {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("open lua library %s: %w", lib.name, err)
		}
	}
	for _, name := range luaBlocked {
		L.SetGlobal(name, lua.LNil)
	}

	all := L.NewTable()
	for name, v := range scope {
		lv := toLua(L, v)
		L.SetGlobal(name, lv)
		all.RawSetString(name, lv)
	}
	L.SetGlobal(VarsName, all)

	fn, err := L.LoadString("return " + expression)
	if err != nil {
		fn, err = L.LoadString(expression)
		if err != nil {
			L.Close()
			return nil, fmt.Errorf("parse expression: %w", err)
		}
	}
	return &luaProgram{L: L, fn: fn, timeout: l.timeout()}, nil
}

func (l *Lua) timeout() time.Duration {
	if l.Timeout == 0 {
		return DefaultLuaTimeout
	}
	return l.Timeout
}

type luaProgram struct {
	L       *lua.LState
	fn      *lua.LFunction
	timeout time.Duration
}

func (p *luaProgram) Eval(ctx context.Context, bindings map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	L := p.L
	L.SetContext(ctx)
	defer L.RemoveContext()

	for name, v := range bindings {
		L.SetGlobal(name, toLua(L, v))
	}
	top := L.GetTop()
	L.Push(p.fn)
	if err := L.PCall(0, 1, nil); err != nil {
		L.SetTop(top)
		if cerr := ctx.Err(); cerr != nil {
			return nil, fmt.Errorf("evaluate expression: %w", cerr)
		}
		return nil, fmt.Errorf("evaluate expression: %w", err)
	}
	ret := L.Get(-1)
	L.SetTop(top)
	return fromLua(ret), nil
}

func (p *luaProgram) Close() { p.L.Close() }

func toLua(L *lua.LState, v any) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case string:
		return lua.LString(t)
	case int:
		return lua.LNumber(t)
	case int64:
		return lua.LNumber(t)
	case int32:
		return lua.LNumber(t)
	case float64:
		return lua.LNumber(t)
	case float32:
		return lua.LNumber(t)
	case []any:
		tbl := L.NewTable()
		for i, e := range t {
			tbl.RawSetInt(i+1, toLua(L, e))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, e := range t {
			tbl.RawSetString(k, toLua(L, e))
		}
		return tbl
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint())
	case reflect.Slice, reflect.Array:
		tbl := L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			tbl.RawSetInt(i+1, toLua(L, rv.Index(i).Interface()))
		}
		return tbl
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			tbl := L.NewTable()
			for it := rv.MapRange(); it.Next(); {
				tbl.RawSetString(it.Key().String(), toLua(L, it.Value().Interface()))
			}
			return tbl
		}
	}
	return lua.LString(fmt.Sprint(v))
}

func fromLua(v lua.LValue) any {
	switch t := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(t)
	case lua.LString:
		return string(t)
	case lua.LNumber:
		f := float64(t)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case *lua.LTable:
		return tableToGo(t)
	}
	return v.String()
}

// tableToGo returns a []any for sequences (including the empty table) and a
// map[string]any otherwise.
func tableToGo(t *lua.LTable) any {
	n := t.MaxN()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })
	if count == n {
		out := make([]any, n)
		for i := 1; i <= n; i++ {
			out[i-1] = fromLua(t.RawGetInt(i))
		}
		return out
	}
	out := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		out[k.String()] = fromLua(v)
	})
	return out
}
