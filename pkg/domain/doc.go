/*
Package domain contains the core domain models of the Lattice engine.

It defines the immutable description of a workflow (Graph, Node, Edge), the
mutable run-scoped state (ExecutionContext) and the error taxonomy shared by
the scheduler, the executors and the engine. This package is kept pure and
free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Graph: flat, id-indexed collections of nodes and edges (an arena).
  - Node: a typed unit of work whose payload (Data) is interpreted by the executor registered for its type.
  - Edge: a directed dependency; SourceHandle selects one output of a multi-output node (Condition branches).
  - ExecutionContext: variables, per-node status/result/error and run status for one run.
  - RunRecord: the serializable snapshot of a finished (or in-flight) run.
*/
package domain
