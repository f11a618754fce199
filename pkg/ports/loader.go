package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// GraphLoader resolves graph definitions. The storage layer (files, memory)
// stays decoupled from the engine.
type GraphLoader interface {
	// Load returns the graph registered under id.
	// Returns domain.ErrGraphNotFound if there is none.
	Load(ctx context.Context, id string) (*domain.Graph, error)

	// List returns the ids of every available graph, sorted.
	List(ctx context.Context) ([]string, error)
}
