// Package middleware provides ports.RunStore decorators that transform run
// records on their way to storage.
package middleware

import "github.com/aretw0/lattice/pkg/ports"

// Middleware wraps a RunStore to add behaviour.
type Middleware func(ports.RunStore) ports.RunStore

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(store ports.RunStore, mws ...Middleware) ports.RunStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
