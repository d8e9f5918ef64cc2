package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenarioResolvesDocument(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/abc-walk.yaml")
	require.NoError(t, err)

	assert.Equal(t, "abc-walk", s.Name)
	assert.Equal(t, filepath.Join("testdata", "documents", "abc-walk.json"), s.Document)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, OpNext, s.Steps[0].Op())
	assert.Len(t, s.Assertions, 7)
}

func TestLoadScenarioMissingDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: missing
description: points nowhere
document: nowhere.json
assertions:
  - type: round_trip
`), 0o644))

	_, err := LoadScenario(path)
	var nf *DocumentNotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, filepath.Join(dir, "nowhere.json"), nf.Path)
}

func TestParseScenarioRejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: has a typo
sample: Simple graph
assertion:
  - type: round_trip
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenarioValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nsample: Simple graph\nassertions: [{type: round_trip}]",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nsample: Simple graph\nassertions: [{type: round_trip}]",
			want: "description is required",
		},
		{
			name: "no source",
			yaml: "name: n\ndescription: d\nassertions: [{type: round_trip}]",
			want: "exactly one of document or sample",
		},
		{
			name: "two sources",
			yaml: "name: n\ndescription: d\nsample: s\ndocument: x.json\nassertions: [{type: round_trip}]",
			want: "exactly one of document or sample",
		},
		{
			name: "partial sample",
			yaml: "name: n\ndescription: d\nsample: s\npartial: true\nassertions: [{type: round_trip}]",
			want: "partial only applies to documents",
		},
		{
			name: "no assertions",
			yaml: "name: n\ndescription: d\nsample: s",
			want: "assertions list is required",
		},
		{
			name: "empty step",
			yaml: "name: n\ndescription: d\nsample: s\nsteps: [{}]\nassertions: [{type: round_trip}]",
			want: "steps[0]: exactly one of",
		},
		{
			name: "two ops in a step",
			yaml: "name: n\ndescription: d\nsample: s\nsteps: [{next: 1, undo: 1}]\nassertions: [{type: round_trip}]",
			want: "steps[0]: exactly one of",
		},
		{
			name: "negative next",
			yaml: "name: n\ndescription: d\nsample: s\nsteps: [{next: -1}]\nassertions: [{type: round_trip}]",
			want: "next must be positive",
		},
		{
			name: "counter without value",
			yaml: "name: n\ndescription: d\nsample: s\nassertions: [{type: counter}]",
			want: "value is required for counter",
		},
		{
			name: "code without node",
			yaml: "name: n\ndescription: d\nsample: s\nassertions: [{type: code, code: x}]",
			want: "node and code are required",
		},
		{
			name: "destinations without ids",
			yaml: "name: n\ndescription: d\nsample: s\nassertions: [{type: destinations, node: 1}]",
			want: "node and ids are required for destinations",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nsample: s\nassertions: [{type: nope}]",
			want: `unknown assertion type "nope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenarioEmptyIDsAreSupplied(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: n
description: d
sample: Simple graph
assertions:
  - type: origins
    node: 0
    ids: []
`))
	require.NoError(t, err)
	assert.NotNil(t, s.Assertions[0].IDs)
	assert.Empty(t, s.Assertions[0].IDs)
}

func TestStepOp(t *testing.T) {
	zero := 0
	assert.Equal(t, OpNext, Step{Next: 2}.Op())
	assert.Equal(t, OpUndo, Step{Undo: 1}.Op())
	assert.Equal(t, OpSeek, Step{Seek: &zero}.Op())
	assert.Equal(t, OpSelect, Step{Select: []int{1, 2}}.Op())
	assert.Equal(t, OpClear, Step{Clear: true}.Op())
	assert.Equal(t, "", Step{}.Op())
	assert.Equal(t, "", Step{Next: 1, Clear: true}.Op())
}
