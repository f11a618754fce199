package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewRunStore()
	mw, err := middleware.NewPIIMiddleware([]string{"password", "ssn", "^token$"})
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	rec := &domain.RunRecord{
		RunID: "pii-run",
		NodeResults: map[string]any{
			"token": "abc",
			"profile": map[string]any{
				"name":          "jdoe",
				"user_password": "secret123",
				"details":       map[string]any{"ssn_number": "999-99-9999"},
			},
			"rows": []any{map[string]any{"password": "x", "id": 1}},
			"out":  domain.OutputValue{Kind: domain.OutputResult, Value: map[string]any{"ssn": "1"}},
		},
	}
	require.NoError(t, store.Save(ctx, rec))

	profile := rec.NodeResults["profile"].(map[string]any)
	assert.Equal(t, "secret123", profile["user_password"], "the caller's record is not modified")

	stored, err := underlying.Load(ctx, "pii-run")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.NodeResults["token"])

	sp := stored.NodeResults["profile"].(map[string]any)
	assert.Equal(t, "jdoe", sp["name"])
	assert.Equal(t, middleware.Mask, sp["user_password"])
	assert.Equal(t, middleware.Mask, sp["details"].(map[string]any)["ssn_number"])

	row := stored.NodeResults["rows"].([]any)[0].(map[string]any)
	assert.Equal(t, middleware.Mask, row["password"])
	assert.Equal(t, 1, row["id"])

	out := stored.NodeResults["out"].(domain.OutputValue)
	assert.Equal(t, middleware.Mask, out.Value.(map[string]any)["ssn"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestPIIMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewPIIMiddleware([]string{"password"})
	require.NoError(t, err)
	ports.RunStoreContract(t, mw(memory.NewRunStore()))
}
