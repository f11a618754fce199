package executor

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/expr"
	"github.com/aretw0/lattice/pkg/ports"
)

// CapabilityConfig is the payload of a capability node.
type CapabilityConfig struct {
	CapabilityType string         `json:"capabilityType"`
	CapabilityID   string         `json:"capabilityId"`
	Parameters     map[string]any `json:"parameters"`
}

// CapabilityExecutor calls an external tool, resource or prompt. String
// parameters are interpolated with {{name}} before the call.
type CapabilityExecutor struct {
	Invoker ports.CapabilityInvoker
}

func (e *CapabilityExecutor) RequiredInputs(domain.Node) []string  { return nil }
func (e *CapabilityExecutor) ProducedOutputs(domain.Node) []string { return nil }

func (e *CapabilityExecutor) Execute(ctx context.Context, node domain.Node, _ *domain.ExecutionContext, inputs Inputs) (any, error) {
	var cfg CapabilityConfig
	if err := decodeData(node, &cfg); err != nil {
		return nil, err
	}
	kind, ok := domain.ParseCapabilityKind(cfg.CapabilityType)
	if !ok {
		return nil, invalidInput(node, "unknown capabilityType %q", cfg.CapabilityType)
	}
	if cfg.CapabilityID == "" {
		return nil, invalidInput(node, "capability node without capabilityId")
	}
	if e.Invoker == nil {
		return nil, fmt.Errorf("%s %q: no capability invoker configured: %w", kind, cfg.CapabilityID, domain.ErrCapabilityNotFound)
	}

	params, _ := expr.ResolveAll(cfg.Parameters, inputs).(map[string]any)
	return e.Invoker.Invoke(ctx, kind, cfg.CapabilityID, params)
}
