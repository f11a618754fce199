package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// StreamManager fans run events out to SSE subscribers, keyed by run id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe returns a channel of JSON-encoded events for runID and a
// function that releases it.
func (sm *StreamManager) Subscribe(runID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of runID. Slow clients lose
// messages rather than block the engine.
func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[runID] {
		select {
		case ch <- msg:
		default:
			slog.Warn("SSE: client buffer full, dropping message", "run_id", runID)
		}
	}
}

// Hooks publishes every lifecycle event to the run's subscribers.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	run := func(_ context.Context, e *domain.RunEvent) { sm.publish(e.RunID, e) }
	node := func(_ context.Context, e *domain.NodeEvent) { sm.publish(e.RunID, e) }
	return domain.LifecycleHooks{
		OnRunStart:    run,
		OnRunFinish:   run,
		OnNodeEnter:   node,
		OnNodeLeave:   node,
		OnNodeSkipped: node,
	}
}

func (sm *StreamManager) publish(runID string, event any) {
	sm.mu.RLock()
	n := len(sm.subscribers[runID])
	sm.mu.RUnlock()
	if n == 0 {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("SSE: event encode failed", "run_id", runID, "err", err)
		return
	}
	sm.Broadcast(runID, string(data))
}
