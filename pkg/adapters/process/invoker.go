// Package process serves tool capabilities by running allow-listed local
// commands.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/executor"
	"github.com/aretw0/lattice/pkg/ports"
)

// ArgEnvPrefix prefixes the environment variables carrying call parameters.
const ArgEnvPrefix = "LATTICE_ARG_"

// Invoker implements ports.CapabilityInvoker for tools backed by local
// processes. Only registered commands run; parameters never become command
// line flags.
//
// Each parameter is exported as LATTICE_ARG_<NAME> (scalars verbatim,
// composites as JSON) and the whole parameter object is written to stdin as
// JSON. Stdout that is valid JSON is decoded; anything else is returned as a
// trimmed string. A non-zero exit fails the call with stderr attached.
type Invoker struct {
	mu      sync.RWMutex
	tools   map[string]ToolConfig
	baseDir string
}

// Option configures the invoker.
type Option func(*Invoker)

// WithTools populates the allow-list from a loaded config.
func WithTools(tools map[string]ToolConfig) Option {
	return func(i *Invoker) {
		for _, tool := range tools {
			i.tools[tool.Name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(i *Invoker) {
		i.baseDir = dir
	}
}

// NewInvoker creates an invoker with an empty allow-list.
func NewInvoker(opts ...Option) *Invoker {
	i := &Invoker{tools: make(map[string]ToolConfig)}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Register adds a trusted command to the allow-list.
func (i *Invoker) Register(name, command string, args ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tools[name] = ToolConfig{Name: name, Command: command, Args: args}
}

// Tools returns the registered tool names, sorted.
func (i *Invoker) Tools() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	names := make([]string, 0, len(i.tools))
	for name := range i.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the tool named id. Resources and prompts are not served.
func (i *Invoker) Invoke(ctx context.Context, kind domain.CapabilityKind, id string, params map[string]any) (any, error) {
	if kind != domain.CapabilityTool {
		return nil, fmt.Errorf("%s %s: %w", kind, id, domain.ErrCapabilityNotFound)
	}
	i.mu.RLock()
	tool, ok := i.tools[id]
	i.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("process tool %s: %w", id, domain.ErrCapabilityNotFound)
	}

	stdin, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode parameters for %s: %w", id, err)
	}

	cmd := exec.CommandContext(ctx, tool.Command, tool.Args...)
	cmd.Dir = i.baseDir
	cmd.Env = append(cmd.Environ(), environment(tool, params)...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("tool %s failed: %w: %s", id, err, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if out != "" && json.Valid([]byte(out)) {
		if v, err := executor.ParseLiteral(out); err == nil {
			return v, nil
		}
	}
	return out, nil
}

func environment(tool ToolConfig, params map[string]any) []string {
	env := make([]string, 0, len(tool.Environment)+len(params))
	for k, v := range tool.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range params {
		env = append(env, ArgEnvPrefix+strings.ToUpper(k)+"="+argString(v))
	}
	return env
}

func argString(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

var _ ports.CapabilityInvoker = (*Invoker)(nil)
