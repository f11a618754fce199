package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lattice/pkg/domain"
)

// LoggingHooks logs node transitions at debug level and skips at info.
// Run start and finish are logged by the engine itself.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter",
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"type", e.NodeType,
			)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			level := slog.LevelDebug
			if e.Status == domain.NodeFailed {
				level = slog.LevelWarn
			}
			attrs := []any{
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"status", e.Status,
				"duration", e.Duration,
			}
			if e.Reason != "" {
				attrs = append(attrs, "err", e.Reason)
			}
			logger.Log(ctx, level, "node_leave", attrs...)
		},
		OnNodeSkipped: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_skipped",
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"reason", e.Reason,
			)
		},
	}
}
