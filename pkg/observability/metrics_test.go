package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics("lattice_test")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnRunStart(ctx, &domain.RunEvent{Status: domain.RunRunning})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsInFlight))

	hooks.OnNodeLeave(ctx, &domain.NodeEvent{NodeType: domain.NodeTypeInput, Status: domain.NodeSucceeded, Duration: time.Millisecond})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{NodeType: domain.NodeTypeInput, Status: domain.NodeSucceeded})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{NodeType: domain.NodeTypeTransform, Status: domain.NodeFailed})
	hooks.OnNodeSkipped(ctx, &domain.NodeEvent{Reason: "pruned"})
	hooks.OnRunFinish(ctx, &domain.RunEvent{Status: domain.RunFailed, Duration: time.Second})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodesTotal.WithLabelValues("input", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodesTotal.WithLabelValues("transform", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodesSkipped.WithLabelValues("pruned")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.NodeDuration))
}

func TestMetrics_RegisterTwice(t *testing.T) {
	m := observability.NewMetrics("lattice_test")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	hooks := observability.LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: "a"})
	assert.Empty(t, buf.String(), "enter is debug")

	hooks.OnNodeLeave(ctx, &domain.NodeEvent{NodeID: "b", Status: domain.NodeFailed, Reason: "boom"})
	assert.Contains(t, buf.String(), "node_leave")
	assert.Contains(t, buf.String(), "err=boom")

	hooks.OnNodeSkipped(ctx, &domain.NodeEvent{NodeID: "c", Reason: "pruned"})
	assert.Contains(t, buf.String(), "reason=pruned")
}
