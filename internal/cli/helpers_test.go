package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracegraph/internal/testutil"
)

// invalidJSON removes a node that never existed.
const invalidJSON = `{
  "nodes": {"0": {"code": "a", "destinations": []}},
  "modifications": [{"type": "remove", "causers": [], "targets": [9], "change": []}],
  "increments": []
}
`

// execute runs a single command and returns what it wrote to stdout.
func execute(t *testing.T, newCmd func(*RootOptions) *cobra.Command, format string, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := newCmd(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// decodeData decodes a CLIResponse and its data payload into v.
func decodeData(t *testing.T, out string, v any) CLIResponse {
	t.Helper()

	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	if v != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

func writeABC(t *testing.T) string {
	t.Helper()
	return testutil.WriteFile(t, "abc.json", testutil.ABCJSON)
}
