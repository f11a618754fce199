package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.CapabilityInvoker = (*registry.Registry)(nil)

func TestRegistry_Invoke(t *testing.T) {
	reg := registry.NewRegistry()
	reg.RegisterTool("echo", func(_ context.Context, params map[string]any) (any, error) {
		return params["text"], nil
	})
	reg.RegisterResource("config", func(context.Context, map[string]any) (any, error) {
		return map[string]any{"env": "test"}, nil
	})

	got, err := reg.Invoke(context.Background(), domain.CapabilityTool, "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	got, err = reg.Invoke(context.Background(), domain.CapabilityResource, "config", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"env": "test"}, got)
}

func TestRegistry_NotFound(t *testing.T) {
	reg := registry.NewRegistry()
	reg.RegisterTool("echo", func(context.Context, map[string]any) (any, error) { return nil, nil })

	_, err := reg.Invoke(context.Background(), domain.CapabilityPrompt, "echo", nil)
	assert.ErrorIs(t, err, domain.ErrCapabilityNotFound, "kinds are separate namespaces")

	_, err = reg.Invoke(context.Background(), domain.CapabilityTool, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrCapabilityNotFound)
}

func TestRegistry_ListAndOverwrite(t *testing.T) {
	reg := registry.NewRegistry()
	reg.RegisterPrompt("b", func(context.Context, map[string]any) (any, error) { return "old", nil })
	reg.RegisterPrompt("a", func(context.Context, map[string]any) (any, error) { return "a", nil })
	reg.RegisterPrompt("b", func(context.Context, map[string]any) (any, error) { return "new", nil })

	assert.Equal(t, []string{"a", "b"}, reg.List(domain.CapabilityPrompt))
	assert.Empty(t, reg.List(domain.CapabilityTool))

	got, err := reg.Invoke(context.Background(), domain.CapabilityPrompt, "b", nil)
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestChain(t *testing.T) {
	local := registry.NewRegistry()
	local.RegisterTool("shared", func(context.Context, map[string]any) (any, error) { return "local", nil })
	remote := registry.NewRegistry()
	remote.RegisterTool("shared", func(context.Context, map[string]any) (any, error) { return "remote", nil })
	remote.RegisterTool("only_remote", func(context.Context, map[string]any) (any, error) { return "remote", nil })
	remote.RegisterTool("broken", func(context.Context, map[string]any) (any, error) { return nil, errors.New("boom") })

	inv := registry.Chain(local, nil, remote)
	ctx := context.Background()

	tests := []struct {
		id      string
		want    any
		wantErr error
	}{
		{id: "shared", want: "local"},
		{id: "only_remote", want: "remote"},
		{id: "missing", wantErr: domain.ErrCapabilityNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := inv.Invoke(ctx, domain.CapabilityTool, tt.id, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := inv.Invoke(ctx, domain.CapabilityTool, "broken", nil)
	assert.EqualError(t, err, "boom")

	_, err = registry.Chain().Invoke(ctx, domain.CapabilityTool, "x", nil)
	assert.ErrorIs(t, err, domain.ErrCapabilityNotFound)
}
