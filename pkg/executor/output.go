package executor

import (
	"context"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// OutputConfig is the payload of an output node.
type OutputConfig struct {
	// OutputType is "result" (default) or "error".
	OutputType string `json:"outputType"`
}

// OutputExecutor records the upstream value as a tagged output.
type OutputExecutor struct{}

func (e *OutputExecutor) RequiredInputs(domain.Node) []string  { return []string{InputName} }
func (e *OutputExecutor) ProducedOutputs(domain.Node) []string { return nil }

func (e *OutputExecutor) Execute(_ context.Context, node domain.Node, _ *domain.ExecutionContext, inputs Inputs) (any, error) {
	var cfg OutputConfig
	if err := decodeData(node, &cfg); err != nil {
		return nil, err
	}
	kind := domain.OutputKind(strings.ToLower(cfg.OutputType))
	switch kind {
	case "":
		kind = domain.OutputResult
	case domain.OutputResult, domain.OutputError:
	default:
		return nil, invalidInput(node, "unknown outputType %q", cfg.OutputType)
	}
	v, _ := inputs.Input()
	return domain.OutputValue{Kind: kind, Value: v}, nil
}
