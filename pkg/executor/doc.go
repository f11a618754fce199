/*
Package executor defines how nodes are executed.

An Executor is registered per node type in a Registry. The engine never calls
an Executor directly: it goes through Run, the base wrapper that resolves the
node's inputs, checks the inputs the executor requires, recovers panics,
classifies failures and records the outcome in the ExecutionContext. A failing
node therefore never aborts the run.

Built-in node types:

	input       seeds a variable from the run's initial variables or a default
	output      records the upstream value as a tagged result or error
	condition   compares two operands (or evaluates an expression) and picks a branch
	transform   map / filter / reduce / custom over an array
	capability  calls a tool, resource or prompt through a ports.CapabilityInvoker

Node payloads (Node.Data) are decoded with mapstructure using the JSON field
names (`conditionType`, `leftValue`, ...), weakly typed so that values coming
from YAML or HTTP bodies coerce where it is unambiguous.
*/
package executor
