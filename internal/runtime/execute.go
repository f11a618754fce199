package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/executor"
	"github.com/aretw0/lattice/pkg/scheduler"
)

// Skip reasons reported through OnNodeSkipped and the log.
const (
	ReasonPruned    = "pruned"
	ReasonUpstream  = "upstream failed"
	ReasonCancelled = "cancelled"
)

// Execute runs g inside run, which must be idle. vars are copied into the
// run variables before the first node executes.
//
// Nodes are dispatched in topological order (or level by level with
// WithParallelism). A node whose incoming edges were all pruned by
// conditions is skipped, and so is a node fed by a failed or
// failure-skipped node. Cancellation, through Cancel or ctx, is observed
// before each node; the node in flight is allowed to finish.
func (e *Engine) Execute(ctx context.Context, g *domain.Graph, run *domain.ExecutionContext, vars map[string]any) error {
	if run.Status() != domain.RunIdle {
		return fmt.Errorf("run %s already started", run.RunID())
	}
	for k, v := range vars {
		run.SetVariable(k, v)
	}

	logger := e.logger.With("run_id", run.RunID())
	if g != nil && g.ID != "" {
		logger = logger.With("graph_id", g.ID)
	}

	run.Start(time.Now())
	e.track(run)
	defer e.untrack(run)
	e.emitRunStart(ctx, run)
	logger.Info("run started")

	plan, err := e.Plan(g)
	if err != nil {
		e.finish(ctx, logger, run, domain.RunFailed, err)
		return err
	}

	st := newRunState(g.Index(), run)

	for _, group := range e.batches(plan) {
		if stopped(ctx, run) {
			break
		}
		e.dispatch(ctx, logger, st, group)
	}

	var pending []string
	for _, id := range plan.Order {
		if !run.NodeStatus(id).IsTerminal() {
			pending = append(pending, id)
		}
	}
	if len(pending) > 0 {
		for _, id := range pending {
			e.skip(ctx, logger, st, st.idx.Nodes[id], ReasonCancelled)
		}
		cause := domain.ErrCancelled
		if ctx.Err() != nil {
			cause = fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
		}
		e.finish(ctx, logger, run, domain.RunCancelled, cause)
		return nil
	}

	status := domain.RunSucceeded
	for _, id := range plan.Order {
		if run.NodeStatus(id) == domain.NodeFailed {
			status = domain.RunFailed
			break
		}
	}
	e.finish(ctx, logger, run, status, nil)
	return nil
}

// batches returns the dispatch units: one node at a time in sequential
// mode, whole levels in parallel mode.
func (e *Engine) batches(plan *scheduler.Plan) [][]string {
	if e.parallelism > 1 {
		return plan.Groups
	}
	out := make([][]string, len(plan.Order))
	for i, id := range plan.Order {
		out[i] = []string{id}
	}
	return out
}

func (e *Engine) dispatch(ctx context.Context, logger *slog.Logger, st *runState, group []string) {
	ready := make([]domain.Node, 0, len(group))
	for _, id := range group {
		node := st.idx.Nodes[id]
		if reason := st.skipReason(id); reason != "" {
			e.skip(ctx, logger, st, node, reason)
			continue
		}
		st.run.SetNodeStatus(id, domain.NodeQueued)
		ready = append(ready, node)
	}

	if len(ready) == 1 || e.parallelism <= 1 {
		for _, node := range ready {
			if stopped(ctx, st.run) {
				return
			}
			e.execNode(ctx, logger, st, node)
		}
		return
	}

	var eg errgroup.Group
	eg.SetLimit(e.parallelism)
	for _, node := range ready {
		eg.Go(func() error {
			if stopped(ctx, st.run) {
				return nil
			}
			e.execNode(ctx, logger, st, node)
			return nil
		})
	}
	_ = eg.Wait()
}

func (e *Engine) execNode(ctx context.Context, logger *slog.Logger, st *runState, node domain.Node) {
	log := logger.With("node_id", node.ID, "node_type", string(node.Type))
	e.emitNodeEnter(ctx, st.run, node)
	log.Debug("node started")
	start := time.Now()

	status := e.runNode(ctx, st, node)
	st.settle(node, status)

	d := time.Since(start)
	if status == domain.NodeFailed {
		log.Warn("node failed", "err", st.run.NodeError(node.ID), "duration", d)
	} else {
		log.Debug("node finished", "status", string(status), "duration", d)
	}
	e.emitNodeLeave(ctx, st.run, node, status, d)
}

func (e *Engine) runNode(ctx context.Context, st *runState, node domain.Node) domain.NodeStatus {
	run := st.run
	exec, err := e.registry.Lookup(node.Type)
	if err != nil {
		run.SetNodeError(node.ID, domain.NewNodeError(node.ID, domain.KindNodeExecution, err))
		run.SetNodeStatus(node.ID, domain.NodeFailed)
		return domain.NodeFailed
	}

	timeout := e.nodeTimeout
	if node.Timeout != "" {
		d, err := time.ParseDuration(node.Timeout)
		if err != nil {
			run.SetNodeError(node.ID, domain.NewNodeError(node.ID, domain.KindInvalidInput, fmt.Errorf("invalid timeout %q: %w", node.Timeout, err)))
			run.SetNodeStatus(node.ID, domain.NodeFailed)
			return domain.NodeFailed
		}
		timeout = d
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return executor.Run(ctx, exec, node, run, st.idx, st.liveIncoming(node.ID))
}

func (e *Engine) skip(ctx context.Context, logger *slog.Logger, st *runState, node domain.Node, reason string) {
	st.run.SetNodeStatus(node.ID, domain.NodeSkipped)
	st.markSkipped(node.ID, reason)
	logger.Debug("node skipped", "node_id", node.ID, "reason", reason)
	e.emitNodeSkipped(ctx, st.run, node, reason)
}

func (e *Engine) finish(ctx context.Context, logger *slog.Logger, run *domain.ExecutionContext, status domain.RunStatus, err error) {
	run.Finish(status, err, time.Now())
	duration := run.EndTime().Sub(run.StartTime())
	switch status {
	case domain.RunCancelled:
		logger.Warn("run cancelled", "duration", duration)
	case domain.RunFailed:
		if err != nil {
			logger.Error("run aborted", "err", err)
			break
		}
		logger.Info("run finished", "status", string(status), "duration", duration)
	default:
		logger.Info("run finished", "status", string(status), "duration", duration)
	}
	e.emitRunFinish(ctx, run)

	if e.store == nil {
		return
	}
	if serr := e.store.Save(context.WithoutCancel(ctx), run.Snapshot()); serr != nil {
		logger.Error("failed to save run", "err", serr)
	}
}

func stopped(ctx context.Context, run *domain.ExecutionContext) bool {
	return run.IsCancelled() || ctx.Err() != nil
}

// runState holds the per-run bookkeeping for pruning and failure
// propagation. Decisions for a node are taken only after all of its
// dependencies have settled.
type runState struct {
	idx *domain.Index
	run *domain.ExecutionContext

	mu          sync.Mutex
	prunedEdges map[domain.Edge]bool
	pruned      map[string]bool
	tainted     map[string]bool
}

func newRunState(idx *domain.Index, run *domain.ExecutionContext) *runState {
	return &runState{
		idx:         idx,
		run:         run,
		prunedEdges: make(map[domain.Edge]bool),
		pruned:      make(map[string]bool),
		tainted:     make(map[string]bool),
	}
}

// skipReason returns why id must not run, or "" if it should.
func (s *runState) skipReason(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	incoming := s.idx.Incoming[id]
	if len(incoming) == 0 {
		return ""
	}
	live := 0
	for _, e := range incoming {
		if s.tainted[e.Source] {
			return ReasonUpstream
		}
		if !s.prunedEdges[e] && !s.pruned[e.Source] {
			live++
		}
	}
	if live == 0 {
		return ReasonPruned
	}
	return ""
}

func (s *runState) liveIncoming(id string) []domain.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Edge
	for _, e := range s.idx.Incoming[id] {
		if !s.prunedEdges[e] && !s.pruned[e.Source] {
			out = append(out, e)
		}
	}
	return out
}

// settle updates the bookkeeping once a node has executed. A succeeded
// condition prunes the outgoing edges of its untaken branch.
func (s *runState) settle(node domain.Node, status domain.NodeStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == domain.NodeFailed {
		s.tainted[node.ID] = true
		return
	}
	if node.Type != domain.NodeTypeCondition || status != domain.NodeSucceeded {
		return
	}
	taken, ok := s.run.Variable(domain.BranchKey(node.ID))
	if !ok {
		return
	}
	for _, e := range s.idx.Outgoing[node.ID] {
		if b := e.Branch(); b != "" && b != taken {
			s.prunedEdges[e] = true
		}
	}
}

func (s *runState) markSkipped(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch reason {
	case ReasonUpstream:
		s.tainted[id] = true
	case ReasonPruned:
		s.pruned[id] = true
	}
}
