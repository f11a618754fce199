package runtime

import (
	"context"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
)

func (e *Engine) emitRunStart(ctx context.Context, run *domain.ExecutionContext) {
	if e.hooks.OnRunStart == nil {
		return
	}
	e.hooks.OnRunStart(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunStart, RunID: run.RunID()},
		GraphID:   run.GraphID(),
		Status:    domain.RunRunning,
	})
}

func (e *Engine) emitRunFinish(ctx context.Context, run *domain.ExecutionContext) {
	if e.hooks.OnRunFinish == nil {
		return
	}
	e.hooks.OnRunFinish(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunFinish, RunID: run.RunID()},
		GraphID:   run.GraphID(),
		Status:    run.Status(),
		Duration:  run.EndTime().Sub(run.StartTime()),
	})
}

func (e *Engine) emitNodeEnter(ctx context.Context, run *domain.ExecutionContext, node domain.Node) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeEnter, RunID: run.RunID()},
		NodeID:    node.ID,
		NodeType:  node.Type,
		Status:    domain.NodeRunning,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, run *domain.ExecutionContext, node domain.Node, status domain.NodeStatus, d time.Duration) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	ev := &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeLeave, RunID: run.RunID()},
		NodeID:    node.ID,
		NodeType:  node.Type,
		Status:    status,
		Duration:  d,
	}
	if err := run.NodeError(node.ID); err != nil {
		ev.Reason = err.Error()
	}
	e.hooks.OnNodeLeave(ctx, ev)
}

func (e *Engine) emitNodeSkipped(ctx context.Context, run *domain.ExecutionContext, node domain.Node, reason string) {
	if e.hooks.OnNodeSkipped == nil {
		return
	}
	e.hooks.OnNodeSkipped(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeSkipped, RunID: run.RunID()},
		NodeID:    node.ID,
		NodeType:  node.Type,
		Status:    domain.NodeSkipped,
		Reason:    reason,
	})
}
