package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

func TestRunStore_Contract(t *testing.T) {
	ports.RunStoreContract(t, memory.NewRunStore())
}

func TestRunStore_Isolation(t *testing.T) {
	store := memory.NewRunStore()
	rec := &domain.RunRecord{RunID: "r1", NodeResults: map[string]any{"a": 1}}
	require.NoError(t, store.Save(context.Background(), rec))

	rec.NodeResults["a"] = 2
	loaded, err := store.Load(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.NodeResults["a"])
}
