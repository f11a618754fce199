// Package registry provides an in-process capability registry: Go functions
// registered as tools, resources or prompts and invoked by Capability nodes.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Function is the signature of a locally registered capability.
// Resources and prompts receive their parameters the same way tools do.
type Function func(ctx context.Context, params map[string]any) (any, error)

// Registry manages the available capabilities, keyed by kind and id.
// It implements ports.CapabilityInvoker.
type Registry struct {
	mu    sync.RWMutex
	items map[domain.CapabilityKind]map[string]Function
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		items: make(map[domain.CapabilityKind]map[string]Function),
	}
}

// Register adds a capability. An existing entry with the same kind and id
// is overwritten.
func (r *Registry) Register(kind domain.CapabilityKind, id string, fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items[kind] == nil {
		r.items[kind] = make(map[string]Function)
	}
	r.items[kind][id] = fn
}

func (r *Registry) RegisterTool(id string, fn Function) {
	r.Register(domain.CapabilityTool, id, fn)
}

func (r *Registry) RegisterResource(id string, fn Function) {
	r.Register(domain.CapabilityResource, id, fn)
}

func (r *Registry) RegisterPrompt(id string, fn Function) {
	r.Register(domain.CapabilityPrompt, id, fn)
}

// Invoke looks up a capability and calls it.
func (r *Registry) Invoke(ctx context.Context, kind domain.CapabilityKind, id string, params map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.items[kind][id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, id, domain.ErrCapabilityNotFound)
	}
	if params == nil {
		params = map[string]any{}
	}
	return fn(ctx, params)
}

// List returns the sorted ids registered under kind.
func (r *Registry) List(kind domain.CapabilityKind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.items[kind]))
	for id := range r.items[kind] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Chain tries each invoker in order, moving on only when one reports
// domain.ErrCapabilityNotFound. Nil invokers are ignored.
func Chain(invokers ...ports.CapabilityInvoker) ports.CapabilityInvoker {
	var live []ports.CapabilityInvoker
	for _, inv := range invokers {
		if inv != nil {
			live = append(live, inv)
		}
	}
	return chain(live)
}

type chain []ports.CapabilityInvoker

func (c chain) Invoke(ctx context.Context, kind domain.CapabilityKind, id string, params map[string]any) (any, error) {
	err := fmt.Errorf("%s %q: %w", kind, id, domain.ErrCapabilityNotFound)
	for _, inv := range c {
		var out any
		out, err = inv.Invoke(ctx, kind, id, params)
		if !errors.Is(err, domain.ErrCapabilityNotFound) {
			return out, err
		}
	}
	return nil, err
}
