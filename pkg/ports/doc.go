/*
Package ports defines the driven ports (interfaces) of the Lattice engine.

These interfaces decouple the run loop from the places graphs come from,
where finished runs are recorded, and how external capabilities are reached.

# Key Interfaces

  - GraphLoader: resolves graph definitions by id (memory, files).
  - RunStore: persists RunRecord snapshots of finished runs (memory, Redis).
  - CapabilityInvoker: calls a tool, resource or prompt (local registry, MCP).
  - Runner: the engine surface consumed by the HTTP and MCP adapters.
*/
package ports
