package domain

// NodeType is the tag used to dispatch a node to its executor.
type NodeType string

// Built-in node types.
const (
	// NodeTypeInput seeds a run variable with an external or default value.
	NodeTypeInput NodeType = "input"
	// NodeTypeOutput records the value arriving from upstream as a tagged output.
	NodeTypeOutput NodeType = "output"
	// NodeTypeCondition evaluates a comparison and selects one of two branches.
	NodeTypeCondition NodeType = "condition"
	// NodeTypeTransform applies map/filter/reduce/custom over its input.
	NodeTypeTransform NodeType = "transform"
	// NodeTypeCapability invokes an external tool, resource or prompt.
	NodeTypeCapability NodeType = "capability"
)

// NodeStatus tracks a node through Idle -> Queued -> Running -> {Succeeded, Failed, Skipped}.
type NodeStatus string

const (
	NodeIdle      NodeStatus = "idle"
	NodeQueued    NodeStatus = "queued"
	NodeRunning   NodeStatus = "running"
	NodeSucceeded NodeStatus = "succeeded"
	NodeFailed    NodeStatus = "failed"
	NodeSkipped   NodeStatus = "skipped"
)

// IsTerminal reports whether the node has finished, one way or another.
func (s NodeStatus) IsTerminal() bool {
	return s == NodeSucceeded || s == NodeFailed || s == NodeSkipped
}

// Node represents a logical unit in the workflow graph.
type Node struct {
	ID   string   `json:"id" yaml:"id"`
	Type NodeType `json:"type" yaml:"type"`

	// Data is the type-specific payload. Executors decode it into their own
	// configuration structs (e.g. conditionType/leftValue for conditions).
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`

	// Status is the authored/initial status. The live status of a run is kept
	// in the ExecutionContext, never written back here.
	Status NodeStatus `json:"status,omitempty" yaml:"status,omitempty"`

	// Timeout overrides the engine-wide node timeout (e.g. "5s").
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// OutputKind tags the value recorded by an Output node.
type OutputKind string

const (
	OutputResult OutputKind = "result"
	OutputError  OutputKind = "error"
)

// OutputValue is the result recorded by an Output node.
type OutputValue struct {
	Kind  OutputKind `json:"kind"`
	Value any        `json:"value"`
}
