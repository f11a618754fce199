package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "lattice version "+strings.TrimSpace(lattice.Version)+"\n", out)
}

func TestGraphCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`nodes:
  - id: n
    type: input
    data: {type: int, defaultValue: 4}
  - id: out
    type: output
edges:
  - {id: e1, source: n, target: out}
`), 0o644))

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Graph is valid")

	out, err = execute(t, "plan", path)
	require.NoError(t, err)
	assert.Equal(t, "0: [n]\n1: [out]\n", out)

	out, err = execute(t, "run", path, "--json", "--var", "n=7")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "succeeded"`)

	_, err = execute(t, "run")
	assert.Error(t, err, "graph file argument is required")
}
