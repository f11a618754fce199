package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRunNotFound is returned when a run id cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrGraphNotFound is returned when a loader has no graph under the requested name.
var ErrGraphNotFound = errors.New("graph not found")

// ErrInvalidGraph is returned when a graph violates its structural invariants.
var ErrInvalidGraph = errors.New("invalid graph")

// ErrNoExecutor is returned when no executor is registered for a node type.
var ErrNoExecutor = errors.New("no executor registered for node type")

// ErrNotArray is returned by transforms that require an array input.
var ErrNotArray = errors.New("input is not an array")

// ErrUpstreamFailed marks nodes skipped because a dependency failed.
var ErrUpstreamFailed = errors.New("upstream dependency failed")

// ErrCancelled is recorded as the run error of a cancelled run.
var ErrCancelled = errors.New("run cancelled")

// ErrCapabilityNotFound is returned when an invoker has no capability with the requested id.
var ErrCapabilityNotFound = errors.New("capability not found")

// ErrorKind classifies run and node failures.
type ErrorKind string

const (
	// KindCircularDependency is fatal: the run aborts before any node executes.
	KindCircularDependency ErrorKind = "CircularDependency"
	// KindInvalidInput is node-level: missing or mistyped required input.
	KindInvalidInput ErrorKind = "InvalidInput"
	// KindNodeExecution is node-level: an error raised inside an executor.
	KindNodeExecution ErrorKind = "NodeExecutionError"
	// KindOperationTimeout is node-level: the node exceeded its deadline.
	KindOperationTimeout ErrorKind = "OperationTimeout"
	// KindCancelled is run-level: observed between nodes.
	KindCancelled ErrorKind = "Cancelled"
	// KindInvalidGraph is run-level: the graph failed validation before any node executed.
	KindInvalidGraph ErrorKind = "InvalidGraph"
)

// CircularDependencyError reports a cycle found while ordering the graph.
type CircularDependencyError struct {
	NodeID string
	// Path is the chain of node ids that closes the cycle, starting and ending at NodeID.
	Path []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("circular dependency detected at node '%s' (%s)", e.NodeID, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("circular dependency detected at node '%s'", e.NodeID)
}

// Kind returns KindCircularDependency.
func (e *CircularDependencyError) Kind() ErrorKind { return KindCircularDependency }

// NodeError is a failure isolated to a single node.
type NodeError struct {
	NodeID string
	Kind   ErrorKind
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node '%s': %s: %v", e.NodeID, e.Kind, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// NewNodeError builds a NodeError of the given kind.
func NewNodeError(nodeID string, kind ErrorKind, err error) *NodeError {
	return &NodeError{NodeID: nodeID, Kind: kind, Err: err}
}

// ErrorInfo is the serializable form of a node or run error.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ErrorInfoFrom converts an error into its serializable form.
func ErrorInfoFrom(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{Kind: KindNodeExecution, Message: err.Error()}

	var nodeErr *NodeError
	var cycleErr *CircularDependencyError
	switch {
	case errors.As(err, &nodeErr):
		info.Kind = nodeErr.Kind
		if nodeErr.Err != nil {
			info.Message = nodeErr.Err.Error()
		}
	case errors.As(err, &cycleErr):
		info.Kind = KindCircularDependency
	case errors.Is(err, ErrCancelled):
		info.Kind = KindCancelled
	case errors.Is(err, ErrInvalidGraph):
		info.Kind = KindInvalidGraph
	}
	return info
}
