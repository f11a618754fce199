/*
Package dsl provides a Go DSL for programmatically constructing lattice graphs.

It allows developers to define workflows using a type-safe, fluent builder
instead of YAML or JSON files. This is useful for dynamic graph generation,
unit testing, and leveraging IDE autocompletion.

Example usage:

	b := dsl.New("orders").Name("Order totals")

	b.Input("items").Type("[number]").To("total")
	b.Transform("total").Reduce("acc + item", 0).To("big")
	b.Condition("big").Compare("greater", "{{total_result}}", 100).
		OnTrue("ship").
		OnFalse("hold")
	b.Output("ship")
	b.Output("hold").AsError()

	g, err := b.Graph()
	// ... pass g to engine.Run, or b.Build() for a ports.GraphLoader
*/
package dsl
