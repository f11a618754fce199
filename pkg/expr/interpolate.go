package expr

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Lookup resolves a variable name. Dotted names walk into nested maps when
// the full name is not itself a variable ("user.name").
func Lookup(vars map[string]any, name string) (any, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return nil, false
	}
	var cur any = vars
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Interpolate replaces every {{name}} in s with the string form of the
// variable. Unknown names are left untouched.
func Interpolate(s string, vars map[string]any) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		v, ok := Lookup(vars, name)
		if !ok {
			return m
		}
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
}

// Resolve interpolates an operand. When the whole operand is a single
// {{name}} reference, the variable is returned as-is so that its type
// survives (numbers stay numbers, arrays stay arrays).
func Resolve(operand any, vars map[string]any) any {
	s, ok := operand.(string)
	if !ok {
		return operand
	}
	trimmed := strings.TrimSpace(s)
	if loc := placeholder.FindStringSubmatchIndex(trimmed); loc != nil && loc[0] == 0 && loc[1] == len(trimmed) {
		if v, ok := Lookup(vars, trimmed[loc[2]:loc[3]]); ok {
			return v
		}
	}
	return Interpolate(s, vars)
}

// ResolveAll applies Resolve recursively to maps and slices, as used for
// capability parameters.
func ResolveAll(v any, vars map[string]any) any {
	switch t := v.(type) {
	case string:
		return Resolve(t, vars)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = ResolveAll(val, vars)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = ResolveAll(val, vars)
		}
		return out
	default:
		return v
	}
}
