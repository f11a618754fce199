package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// ResolveInputs builds the scope of a node from the run variables and the
// given live incoming edges. Every upstream result is bound as
// "{source}_result"; the first upstream value in edge order is bound as
// "input". A Condition source is a gate: it forwards its own input rather
// than its boolean result.
func ResolveInputs(run *domain.ExecutionContext, idx *domain.Index, incoming []domain.Edge) Inputs {
	in := Inputs(run.Variables())
	found := false
	for _, e := range incoming {
		res, ok := run.NodeResult(e.Source)
		if !ok {
			continue
		}
		in[domain.ResultKey(e.Source)] = res
		if found {
			continue
		}
		if v, ok := upstreamValue(run, idx, e.Source, res, map[string]bool{}); ok {
			in[InputName] = v
			found = true
		}
	}
	return in
}

func upstreamValue(run *domain.ExecutionContext, idx *domain.Index, id string, res any, seen map[string]bool) (any, bool) {
	if idx == nil || idx.Nodes[id].Type != domain.NodeTypeCondition {
		return res, true
	}
	if seen[id] {
		return nil, false
	}
	seen[id] = true
	for _, e := range idx.Incoming[id] {
		if r, ok := run.NodeResult(e.Source); ok {
			return upstreamValue(run, idx, e.Source, r, seen)
		}
	}
	return res, true
}

// Run executes a node through its executor and records the outcome in run.
// It never returns an error: failures are stored as *domain.NodeError and
// reflected in the returned status.
//
// Executors that ignore ctx are abandoned once ctx's deadline passes. On
// plain cancellation the executor is awaited.
func Run(ctx context.Context, exec Executor, node domain.Node, run *domain.ExecutionContext, idx *domain.Index, incoming []domain.Edge) domain.NodeStatus {
	run.SetNodeStatus(node.ID, domain.NodeRunning)

	inputs := ResolveInputs(run, idx, incoming)
	for _, name := range exec.RequiredInputs(node) {
		if _, ok := inputs[name]; !ok {
			return fail(run, node.ID, domain.NewNodeError(node.ID, domain.KindInvalidInput, fmt.Errorf("missing required input %q", name)))
		}
	}

	result, err := invoke(ctx, exec, node, run, inputs)
	if err != nil {
		return fail(run, node.ID, classify(ctx, node.ID, err))
	}
	run.SetNodeResult(node.ID, result)
	run.SetNodeStatus(node.ID, domain.NodeSucceeded)
	return domain.NodeSucceeded
}

type outcome struct {
	result any
	err    error
}

func invoke(ctx context.Context, exec Executor, node domain.Node, run *domain.ExecutionContext, inputs Inputs) (any, error) {
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("executor panic: %v", r)}
			}
		}()
		res, err := exec.Execute(ctx, node, run, inputs)
		done <- outcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ctx.Err()
		}
		out := <-done
		return out.result, out.err
	}
}

func classify(ctx context.Context, nodeID string, err error) *domain.NodeError {
	var nodeErr *domain.NodeError
	if errors.As(err, &nodeErr) {
		if nodeErr.NodeID == "" {
			nodeErr.NodeID = nodeID
		}
		return nodeErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewNodeError(nodeID, domain.KindOperationTimeout, err)
	}
	return domain.NewNodeError(nodeID, domain.KindNodeExecution, err)
}

func fail(run *domain.ExecutionContext, nodeID string, err *domain.NodeError) domain.NodeStatus {
	run.SetNodeError(nodeID, err)
	run.SetNodeStatus(nodeID, domain.NodeFailed)
	return domain.NodeFailed
}

func invalidInput(node domain.Node, format string, args ...any) error {
	return domain.NewNodeError(node.ID, domain.KindInvalidInput, fmt.Errorf(format, args...))
}
