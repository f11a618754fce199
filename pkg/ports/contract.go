package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests verifying that a RunStore
// implementation honours the interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405.000000")

	newRecord := func(id string) *domain.RunRecord {
		start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		return &domain.RunRecord{
			RunID:     id,
			GraphID:   "contract-graph",
			Status:    domain.RunSucceeded,
			StartTime: start,
			EndTime:   start.Add(time.Second),
			NodeResults: map[string]any{
				"in":  "hello",
				"sum": 42,
			},
			NodeStatuses: map[string]domain.NodeStatus{
				"in":  domain.NodeSucceeded,
				"sum": domain.NodeSucceeded,
				"out": domain.NodeSkipped,
			},
			NodeErrors: map[string]*domain.ErrorInfo{
				"out": {Kind: domain.KindInvalidInput, Message: "missing input"},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		rec := newRecord(runID)
		require.NoError(t, store.Save(ctx, rec), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.RunID, loaded.RunID)
		assert.Equal(t, rec.GraphID, loaded.GraphID)
		assert.Equal(t, domain.RunSucceeded, loaded.Status)
		assert.True(t, rec.StartTime.Equal(loaded.StartTime))
		assert.Equal(t, "hello", loaded.NodeResults["in"])
		// JSON-backed stores decode numbers as float64.
		assert.NotNil(t, loaded.NodeResults["sum"])
		assert.Equal(t, domain.NodeSkipped, loaded.NodeStatuses["out"])
		require.Contains(t, loaded.NodeErrors, "out")
		assert.Equal(t, domain.KindInvalidInput, loaded.NodeErrors["out"].Kind)
	})

	t.Run("Save replaces", func(t *testing.T) {
		rec := newRecord(runID)
		rec.Status = domain.RunCancelled
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunCancelled, loaded.Status)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newRecord(runID)))
		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")

		assert.NoError(t, store.Delete(ctx, runID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := runID+"-1", runID+"-2"
		require.NoError(t, store.Save(ctx, newRecord(id1)))
		require.NoError(t, store.Save(ctx, newRecord(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})

	t.Run("Save nil", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, nil))
	})
}
