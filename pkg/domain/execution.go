package domain

import (
	"maps"
	"sync"
	"time"
)

// RunStatus tracks a run through Idle -> Running -> {Succeeded, Failed, Cancelled}.
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether the run has finished.
func (s RunStatus) IsTerminal() bool {
	return s == RunSucceeded || s == RunFailed || s == RunCancelled
}

// Variable naming conventions shared by executors and the engine.
const (
	ResultSuffix = "_result"
	BranchSuffix = "_branch"
)

// ResultKey returns the variable name under which a node's result is published.
func ResultKey(nodeID string) string { return nodeID + ResultSuffix }

// BranchKey returns the variable name a Condition node writes its branch to.
func BranchKey(nodeID string) string { return nodeID + BranchSuffix }

// ExecutionContext owns all mutable state of a single run.
// It is safe for concurrent use; it must not be shared between runs.
type ExecutionContext struct {
	mu sync.RWMutex

	runID   string
	graphID string

	variables    map[string]any
	nodeResults  map[string]any
	nodeErrors   map[string]error
	nodeStatuses map[string]NodeStatus

	status    RunStatus
	runErr    error
	startTime time.Time
	endTime   time.Time
	cancelled bool
}

// NewExecutionContext creates a fresh, idle context.
func NewExecutionContext(runID, graphID string) *ExecutionContext {
	return &ExecutionContext{
		runID:        runID,
		graphID:      graphID,
		variables:    make(map[string]any),
		nodeResults:  make(map[string]any),
		nodeErrors:   make(map[string]error),
		nodeStatuses: make(map[string]NodeStatus),
		status:       RunIdle,
	}
}

// RunID returns the run identifier.
func (c *ExecutionContext) RunID() string { return c.runID }

// GraphID returns the identifier of the graph being run.
func (c *ExecutionContext) GraphID() string { return c.graphID }

// SetVariable writes a run-global variable.
func (c *ExecutionContext) SetVariable(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variables[name] = value
}

// SetNodeVariable writes a run-global variable on behalf of a node. The
// write is dropped, and false returned, unless the node is Running and the
// run has not finished, so an executor abandoned after its deadline cannot
// change the run.
func (c *ExecutionContext) SetNodeVariable(nodeID, name string, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nodeStatuses[nodeID] != NodeRunning || c.status.IsTerminal() {
		return false
	}
	c.variables[name] = value
	return true
}

// Variable reads a run-global variable.
func (c *ExecutionContext) Variable(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.variables[name]
	return v, ok
}

// Variables returns a copy of the variable namespace.
func (c *ExecutionContext) Variables() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.variables)
}

// SetNodeStatus records the status of a node.
func (c *ExecutionContext) SetNodeStatus(nodeID string, status NodeStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodeStatuses[nodeID] = status
}

// NodeStatus returns the status of a node (Idle if never touched).
func (c *ExecutionContext) NodeStatus(nodeID string) NodeStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.nodeStatuses[nodeID]; ok {
		return s
	}
	return NodeIdle
}

// SetNodeResult stores a node's result and publishes it as "{id}_result".
func (c *ExecutionContext) SetNodeResult(nodeID string, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodeResults[nodeID] = result
	c.variables[ResultKey(nodeID)] = result
}

// NodeResult returns a node's recorded result.
func (c *ExecutionContext) NodeResult(nodeID string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.nodeResults[nodeID]
	return v, ok
}

// SetNodeError records the error that failed a node.
func (c *ExecutionContext) SetNodeError(nodeID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodeErrors[nodeID] = err
}

// NodeError returns the error recorded against a node, if any.
func (c *ExecutionContext) NodeError(nodeID string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nodeErrors[nodeID]
}

// RequestCancel flags the run for cooperative cancellation.
func (c *ExecutionContext) RequestCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = true
}

// IsCancelled reports whether cancellation was requested.
func (c *ExecutionContext) IsCancelled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cancelled
}

// Status returns the run status.
func (c *ExecutionContext) Status() RunStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Err returns the fatal run error, if any.
func (c *ExecutionContext) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runErr
}

// Start marks the run as Running.
func (c *ExecutionContext) Start(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = RunRunning
	c.startTime = at
}

// Finish sets the terminal status and stamps the end time.
func (c *ExecutionContext) Finish(status RunStatus, err error, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.runErr = err
	if c.startTime.IsZero() {
		c.startTime = at
	}
	c.endTime = at
}

// StartTime returns when the run started.
func (c *ExecutionContext) StartTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startTime
}

// EndTime returns when the run finished (zero while running).
func (c *ExecutionContext) EndTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endTime
}

// NodeStatuses returns a copy of all recorded node statuses.
func (c *ExecutionContext) NodeStatuses() map[string]NodeStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.nodeStatuses)
}

// NodeResults returns a copy of all recorded node results.
func (c *ExecutionContext) NodeResults() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.nodeResults)
}

// Snapshot returns the serializable view of the run.
func (c *ExecutionContext) Snapshot() *RunRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec := &RunRecord{
		RunID:        c.runID,
		GraphID:      c.graphID,
		Status:       c.status,
		StartTime:    c.startTime,
		EndTime:      c.endTime,
		NodeResults:  maps.Clone(c.nodeResults),
		NodeStatuses: maps.Clone(c.nodeStatuses),
		NodeErrors:   make(map[string]*ErrorInfo, len(c.nodeErrors)),
		Error:        ErrorInfoFrom(c.runErr),
	}
	for id, err := range c.nodeErrors {
		rec.NodeErrors[id] = ErrorInfoFrom(err)
	}
	return rec
}

// RunRecord is the persisted outcome of a run.
type RunRecord struct {
	RunID        string                `json:"run_id"`
	GraphID      string                `json:"graph_id,omitempty"`
	Status       RunStatus             `json:"status"`
	StartTime    time.Time             `json:"start_time"`
	EndTime      time.Time             `json:"end_time"`
	NodeResults  map[string]any        `json:"node_results"`
	NodeErrors   map[string]*ErrorInfo `json:"node_errors,omitempty"`
	NodeStatuses map[string]NodeStatus `json:"node_statuses"`
	Error        *ErrorInfo            `json:"error,omitempty"`
}
