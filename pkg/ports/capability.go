package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// CapabilityInvoker executes an external capability on behalf of a
// Capability node. The engine emits the request; the host decides how it
// is served.
type CapabilityInvoker interface {
	// Invoke calls the capability identified by kind and id.
	// Returns domain.ErrCapabilityNotFound when the id is unknown.
	Invoke(ctx context.Context, kind domain.CapabilityKind, id string, params map[string]any) (any, error)
}
