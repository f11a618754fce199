/*
Package expr evaluates user-authored expressions for Condition and Transform
nodes without executing host code.

Two sandboxed evaluators are provided:

  - HCL (default): HashiCorp Configuration Language expressions evaluated over
    cty values, with a fixed table of pure functions. Example: `item * 2`,
    `length(input) > 3 && upper(name) == "ADMIN"`.
  - Lua: a gopher-lua state with only the base, table, string and math
    libraries, and with every loader (dofile, load, require...) removed.

Both receive the run variables as their scope and return plain Go values
(string, bool, int64, float64, []any, map[string]any, nil).

The package also implements the `{{name}}` substitution syntax used by
Condition operands and capability parameters.
*/
package expr
