package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// RunStore persists snapshots of runs so they can be inspected after the
// ExecutionContext is gone.
type RunStore interface {
	// Save persists the record under record.RunID, replacing any previous one.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves a record.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes a record. Deleting an unknown run is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns the ids of stored runs.
	List(ctx context.Context) ([]string, error)
}
