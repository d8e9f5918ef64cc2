package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracegraph/internal/testutil"
)

var (
	scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")
	goldenDir    = filepath.Join("..", "harness", "testdata", "golden")
)

func TestTestCommandPasses(t *testing.T) {
	out, err := execute(t, NewTestCommand, "text", scenariosDir, "--golden", goldenDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ abc-walk")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand, "json", scenariosDir, "--golden", goldenDir)
	require.NoError(t, err)

	var result TestResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, result.Passed)
	for _, s := range result.Scenarios {
		assert.Equal(t, "match", s.Golden, s.Name)
	}
}

func TestTestCommandWithoutGoldens(t *testing.T) {
	out, err := execute(t, NewTestCommand, "json", scenariosDir)
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 4, result.Passed)
	for _, s := range result.Scenarios {
		assert.Empty(t, s.Golden, s.Name)
	}
}

func TestTestCommandPattern(t *testing.T) {
	out, err := execute(t, NewTestCommand, "json", scenariosDir, "--pattern", "abc-*.yaml")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 3, result.Total)
}

func TestTestCommandUpdate(t *testing.T) {
	golden := t.TempDir()

	out, err := execute(t, NewTestCommand, "text", scenariosDir, "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	data, err := os.ReadFile(filepath.Join(golden, "abc-walk.golden"))
	require.NoError(t, err)
	assert.Equal(t, testutil.ABCFinalDump+"\n", string(data))

	// Freshly written goldens match on the next run.
	_, err = execute(t, NewTestCommand, "text", scenariosDir, "--golden", golden)
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "abc-walk.golden"), []byte("counter: 0\n"), 0o644))

	out, err := execute(t, NewTestCommand, "text", scenariosDir, "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ abc-walk")
	assert.Contains(t, out, "does not match golden file")
	assert.Contains(t, out, "Test Summary: 3 passed, 1 failed, 4 total")
}

func TestTestCommandAssertionFailure(t *testing.T) {
	path := testutil.WriteFile(t, "scenarios/wrong.yaml", `name: wrong-counter
description: Expects a counter the steps never reach
sample: Simple graph
steps:
  - next: 1
assertions:
  - type: counter
    value: 4
`)

	out, err := execute(t, NewTestCommand, "json", filepath.Dir(path))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "wrong-counter", result.Scenarios[0].Name)
	require.NotEmpty(t, result.Scenarios[0].Errors)
	assert.Contains(t, result.Scenarios[0].Errors[0], "Assertion failed")
}

func TestTestCommandLoadFailure(t *testing.T) {
	path := testutil.WriteFile(t, "scenarios/broken.yaml", "name: broken\nunknown_field: 1\n")

	out, err := execute(t, NewTestCommand, "text", filepath.Dir(path))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandMissingPath(t *testing.T) {
	_, err := execute(t, NewTestCommand, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
