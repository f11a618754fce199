package executor

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/schema"
)

// InputConfig is the payload of an input node.
type InputConfig struct {
	// Variable names the run variable to seed. Defaults to the node id.
	Variable     string `json:"variable"`
	DefaultValue any    `json:"defaultValue"`
	// Type is a schema type name; empty accepts anything.
	Type string `json:"type"`
}

// InputExecutor seeds a run variable. A value supplied with the run's
// initial variables takes precedence over the default. Strings are parsed
// as literals when the declared type is not string, so "3" satisfies int.
type InputExecutor struct{}

func (e *InputExecutor) RequiredInputs(domain.Node) []string { return nil }

func (e *InputExecutor) ProducedOutputs(node domain.Node) []string {
	var cfg InputConfig
	if err := decodeData(node, &cfg); err != nil {
		return nil
	}
	return []string{cfg.variable(node)}
}

func (e *InputExecutor) Execute(_ context.Context, node domain.Node, run *domain.ExecutionContext, _ Inputs) (any, error) {
	var cfg InputConfig
	if err := decodeData(node, &cfg); err != nil {
		return nil, err
	}
	typ, err := schema.ParseType(cfg.Type)
	if err != nil {
		return nil, invalidInput(node, "%v", err)
	}

	name := cfg.variable(node)
	value, ok := run.Variable(name)
	if !ok {
		if cfg.DefaultValue == nil {
			return nil, invalidInput(node, "no value supplied for %q and no default", name)
		}
		value = cfg.DefaultValue
	}

	if s, isString := value.(string); isString && coercible(typ) {
		parsed, err := ParseLiteral(s)
		if err != nil {
			return nil, invalidInput(node, "variable %q: %v", name, err)
		}
		value = parsed
	}
	if err := typ.Validate(value); err != nil {
		return nil, invalidInput(node, "variable %q: %v", name, err)
	}

	run.SetNodeVariable(node.ID, name, value)
	return value, nil
}

func (c InputConfig) variable(node domain.Node) string {
	if c.Variable != "" {
		return c.Variable
	}
	return node.ID
}

func coercible(typ schema.Type) bool {
	switch typ.Name() {
	case "string", "any":
		return false
	}
	return true
}
