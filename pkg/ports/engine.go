package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/scheduler"
)

// Runner is the engine surface used by driving adapters (HTTP, MCP).
type Runner interface {
	// NewRun prepares an idle ExecutionContext for graph g.
	NewRun(g *domain.Graph) *domain.ExecutionContext

	// Execute runs g inside run. It blocks until the run is terminal.
	Execute(ctx context.Context, g *domain.Graph, run *domain.ExecutionContext, vars map[string]any) error

	// Run is NewRun followed by Execute.
	Run(ctx context.Context, g *domain.Graph, vars map[string]any) (*domain.ExecutionContext, error)

	// Cancel requests cancellation of an in-flight run.
	// Returns domain.ErrRunNotFound if no such run is active.
	Cancel(runID string) error

	// Active returns the context of an in-flight run.
	Active(runID string) (*domain.ExecutionContext, bool)

	// Plan returns the execution order and parallel groups of g.
	Plan(g *domain.Graph) (*scheduler.Plan, error)
}
