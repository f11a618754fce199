// Package schema implements the small type language used to declare the
// expected type of Input node values and to check values against it.
//
// Type names:
//
//	string, number (alias float), int (alias integer), bool (alias boolean),
//	array (any elements), [T] (elements of type T), object (alias map), any
//
// Usage:
//
//	typ, err := schema.ParseType("[number]")
//	if err != nil { ... }
//	if err := typ.Validate([]any{1, 2.5}); err != nil { ... }
//
// A Schema maps variable names to types and validates a whole variable set
// at once, reporting every failure.
package schema
