package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

func TestRunPasses(t *testing.T) {
	for _, name := range []string{"abc-walk", "abc-undo", "abc-select", "simple-graph"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRunRecordsSteps(t *testing.T) {
	result, err := Run(loadTestScenario(t, "abc-undo"))
	require.NoError(t, err)
	require.Len(t, result.Steps, 3)

	assert.Equal(t, StepResult{Op: OpNext, Counter: 3, Moved: false, Dump: result.Steps[0].Dump}, result.Steps[0])
	assert.Equal(t, OpUndo, result.Steps[1].Op)
	assert.Equal(t, 1, result.Steps[1].Counter)
	assert.True(t, result.Steps[1].Moved)
	assert.Equal(t, OpSeek, result.Steps[2].Op)
	assert.Equal(t, 2, result.Steps[2].Counter)

	assert.Equal(t, "counter: 1\n"+
		"  k 0 - v { code : a | destinations: 1 | origins:  }\n"+
		"  k 1 - v { code : b | destinations:  | origins: 0 }", result.Steps[1].Dump)
	assert.Equal(t, result.Steps[2].Dump, result.Final)
}

func TestRunReportsFailedAssertions(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: failing
description: every assertion is wrong
sample: Simple graph
steps:
  - next: 1
assertions:
  - type: counter
    value: 4
  - type: code
    node: 0
    code: zzz
  - type: absent
    node: 0
  - type: destinations
    node: 99
    ids: []
  - type: masked
    ids: [0]
  - type: warnings
    value: 3
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "Expected: counter 4")
	assert.Contains(t, result.Errors[0], "Actual: counter 1")
	assert.Contains(t, result.Errors[1], `Actual: code "a"`)
	assert.Contains(t, result.Errors[2], "Actual: node present")
	assert.Contains(t, result.Errors[3], "node not present")
	assert.Contains(t, result.Errors[4], "no active selection")
	assert.Contains(t, result.Errors[5], "Actual: 0 logic warnings")
	assert.Contains(t, result.Errors[0], "Final state:\ncounter: 1")
}

func TestRunSelectAndClear(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: select-clear
description: select then clear restores the full view
sample: Simple graph
steps:
  - select: [0, 3]
  - clear: true
assertions:
  - type: counter
    value: 0
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.NotEqual(t, result.Steps[0].Dump, result.Steps[1].Dump)
	assert.Contains(t, result.Final, "k 9 - v { code : j")
}

func TestRunStepErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "seek out of range",
			yaml: "name: n\ndescription: d\nsample: Simple graph\nsteps: [{seek: 9}]\nassertions: [{type: round_trip}]",
			want: "step 0",
		},
		{
			name: "select arity",
			yaml: "name: n\ndescription: d\nsample: Simple graph\nsteps: [{select: [1]}]\nassertions: [{type: round_trip}]",
			want: "exactly two ids",
		},
		{
			name: "unknown sample",
			yaml: "name: n\ndescription: d\nsample: Nope\nassertions: [{type: round_trip}]",
			want: `unknown sample "Nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScenario([]byte(tt.yaml))
			require.NoError(t, err)

			_, err = Run(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunRoundTripLeavesCounter(t *testing.T) {
	result, err := Run(loadTestScenario(t, "abc-walk"))
	require.NoError(t, err)
	require.True(t, result.Pass)

	// round_trip runs after the counter assertion but must not move it.
	assert.Equal(t, 3, result.Steps[len(result.Steps)-1].Counter)
}

func TestRunWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Run(loadTestScenario(t, "abc-walk"), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "scenario step completed")
}
