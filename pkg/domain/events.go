package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart    EventType = "run_start"
	EventRunFinish   EventType = "run_finish"
	EventNodeEnter   EventType = "node_enter"
	EventNodeLeave   EventType = "node_leave"
	EventNodeSkipped EventType = "node_skipped"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// RunEvent represents the start or the end of a run.
type RunEvent struct {
	EventBase
	GraphID  string        `json:"graph_id,omitempty"`
	Status   RunStatus     `json:"status"`
	Duration time.Duration `json:"duration,omitempty"`
}

// NodeEvent represents entry into, exit from, or skipping of a node.
type NodeEvent struct {
	EventBase
	NodeID   string        `json:"node_id"`
	NodeType NodeType      `json:"node_type"`
	Status   NodeStatus    `json:"status,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks may be called from several goroutines when parallel dispatch is enabled.
type LifecycleHooks struct {
	OnRunStart    func(context.Context, *RunEvent)
	OnRunFinish   func(context.Context, *RunEvent)
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnNodeLeave   func(context.Context, *NodeEvent)
	OnNodeSkipped func(context.Context, *NodeEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart:    chainRun(h.OnRunStart, other.OnRunStart),
		OnRunFinish:   chainRun(h.OnRunFinish, other.OnRunFinish),
		OnNodeEnter:   chainNode(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:   chainNode(h.OnNodeLeave, other.OnNodeLeave),
		OnNodeSkipped: chainNode(h.OnNodeSkipped, other.OnNodeSkipped),
	}
}

func chainRun(a, b func(context.Context, *RunEvent)) func(context.Context, *RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
