package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionContext_Lifecycle(t *testing.T) {
	c := NewExecutionContext("run-1", "graph-1")
	assert.Equal(t, RunIdle, c.Status())
	assert.Equal(t, NodeIdle, c.NodeStatus("a"))

	start := time.Now()
	c.Start(start)
	assert.Equal(t, RunRunning, c.Status())

	c.SetVariable("name", "lattice")
	c.SetNodeStatus("a", NodeSucceeded)
	c.SetNodeResult("a", 42)

	v, ok := c.Variable(ResultKey("a"))
	require.True(t, ok, "results are published as variables")
	assert.Equal(t, 42, v)

	vars := c.Variables()
	vars["name"] = "mutated"
	got, _ := c.Variable("name")
	assert.Equal(t, "lattice", got, "Variables must return a copy")

	assert.False(t, c.IsCancelled())
	c.RequestCancel()
	assert.True(t, c.IsCancelled())

	c.Finish(RunCancelled, nil, start.Add(time.Second))
	assert.Equal(t, RunCancelled, c.Status())
	assert.Equal(t, start.Add(time.Second), c.EndTime())
}

func TestExecutionContext_Snapshot(t *testing.T) {
	c := NewExecutionContext("run-1", "graph-1")
	c.Start(time.Now())
	c.SetNodeStatus("a", NodeSucceeded)
	c.SetNodeResult("a", "ok")
	c.SetNodeStatus("b", NodeFailed)
	c.SetNodeError("b", NewNodeError("b", KindInvalidInput, errors.New("missing input")))
	c.Finish(RunFailed, nil, time.Now())

	rec := c.Snapshot()
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, RunFailed, rec.Status)
	assert.Equal(t, "ok", rec.NodeResults["a"])
	require.Contains(t, rec.NodeErrors, "b")
	assert.Equal(t, KindInvalidInput, rec.NodeErrors["b"].Kind)
	assert.Equal(t, "missing input", rec.NodeErrors["b"].Message)
	assert.Nil(t, rec.Error)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"failed"`)
}

func TestExecutionContext_SetNodeVariable(t *testing.T) {
	c := NewExecutionContext("run-1", "")
	c.Start(time.Now())

	assert.False(t, c.SetNodeVariable("a", "x", 1), "idle node")
	c.SetNodeStatus("a", NodeRunning)
	assert.True(t, c.SetNodeVariable("a", "x", 2))

	c.SetNodeStatus("a", NodeFailed)
	assert.False(t, c.SetNodeVariable("a", "x", 3), "settled node")

	c.SetNodeStatus("b", NodeRunning)
	c.Finish(RunCancelled, ErrCancelled, time.Now())
	assert.False(t, c.SetNodeVariable("b", "x", 4), "finished run")

	v, _ := c.Variable("x")
	assert.Equal(t, 2, v)
}

func TestErrorInfoFrom(t *testing.T) {
	assert.Nil(t, ErrorInfoFrom(nil))

	cycle := &CircularDependencyError{NodeID: "a", Path: []string{"a", "b", "a"}}
	info := ErrorInfoFrom(cycle)
	assert.Equal(t, KindCircularDependency, info.Kind)
	assert.Contains(t, info.Message, "a -> b -> a")

	plain := ErrorInfoFrom(errors.New("boom"))
	assert.Equal(t, KindNodeExecution, plain.Kind)

	cancelled := ErrorInfoFrom(fmt.Errorf("%w: %w", ErrCancelled, context.Canceled))
	assert.Equal(t, KindCancelled, cancelled.Kind)

	invalid := ErrorInfoFrom(fmt.Errorf("%w: edge e1 references unknown node \"x\"", ErrInvalidGraph))
	assert.Equal(t, KindInvalidGraph, invalid.Kind)
	assert.Contains(t, invalid.Message, "unknown node")
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnNodeEnter: func(_ context.Context, e *NodeEvent) { calls = append(calls, "a:"+e.NodeID) }}
	b := LifecycleHooks{OnNodeEnter: func(_ context.Context, e *NodeEvent) { calls = append(calls, "b:"+e.NodeID) }}

	merged := a.Merge(b)
	merged.OnNodeEnter(context.Background(), &NodeEvent{NodeID: "n"})
	assert.Equal(t, []string{"a:n", "b:n"}, calls)
	assert.Nil(t, merged.OnRunStart)
}
