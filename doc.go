/*
Package lattice executes workflow graphs: directed acyclic graphs whose nodes
read inputs, test conditions, transform data, call external capabilities and
emit outputs.

# Concept

A graph is a list of typed nodes and the edges between them. The engine
orders the nodes topologically, resolves each node's inputs from the
results of its upstream nodes, and runs it through the executor registered
for its type. Every run owns an ExecutionContext holding the variables,
results, errors and statuses of that run.

Failures are isolated: a failing node does not abort the run, but every node
downstream of it is skipped. Condition nodes prune the branch they did not
take. Runs can be cancelled between nodes and nodes can be given a timeout.

# Node types

  - input: reads an initial variable, with an optional default and declared type.
  - condition: equals, contains, greater, less or a custom boolean expression.
  - transform: map, filter, reduce or a custom expression over the input.
  - capability: calls a tool, resource or prompt (local or over MCP).
  - output: records the final result or error.

Expressions are HCL by default; Lua is available with
WithExpressionLanguage("lua").

# Usage

	engine, err := lattice.New(lattice.WithParallelism(4))
	if err != nil {
		log.Fatal(err)
	}
	run, err := engine.Run(ctx, graph, map[string]any{"orders": orders})
	if err != nil {
		log.Fatal(err) // invalid graph or circular dependency
	}
	fmt.Println(run.Status())

# Architecture

The module follows a hexagonal layout. pkg/domain holds the graph model
and run state, pkg/ports the driven interfaces (GraphLoader, RunStore,
CapabilityInvoker) and pkg/adapters their implementations (memory, file,
redis, mcp) along with the driving HTTP and MCP servers.
*/
package lattice
