package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracegraph/internal/samples"
	"github.com/roach88/tracegraph/internal/testutil"
)

func TestReplaySamples(t *testing.T) {
	out, err := execute(t, NewReplayCommand, "text")
	require.NoError(t, err)

	for _, s := range samples.All() {
		assert.Contains(t, out, "✓ sample:"+s.Name)
	}
	assert.Contains(t, out, "✓ All traces replayed cleanly")
}

func TestReplayDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.json"), []byte(testutil.ABCJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a trace"), 0o644))

	out, err := execute(t, NewReplayCommand, "json", dir)
	require.NoError(t, err)

	var result ReplayResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.AllOK)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, 3, result.Sources[0].Steps)
	assert.Empty(t, result.Sources[0].Mismatches)
}

func TestReplayDirectoryWithSamples(t *testing.T) {
	path := writeABC(t)

	out, err := execute(t, NewReplayCommand, "json", path, "--samples")
	require.NoError(t, err)

	var result ReplayResult
	decodeData(t, out, &result)
	assert.Equal(t, len(samples.All())+1, result.Total)
}

func TestReplayPattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "abc.json"), []byte(testutil.ABCJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.json"), []byte(testutil.ABCJSON), 0o644))

	out, err := execute(t, NewReplayCommand, "json", dir, "--pattern", "nested/*.json")
	require.NoError(t, err)

	var result ReplayResult
	decodeData(t, out, &result)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, filepath.Join(dir, "nested", "abc.json"), result.Sources[0].Source)
}

func TestReplayLoadFailure(t *testing.T) {
	path := testutil.WriteFile(t, "bad.json", invalidJSON)

	out, err := execute(t, NewReplayCommand, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+path)
	assert.Contains(t, out, "E211")
	assert.Contains(t, out, "✗ Replay verification failed")
}

func TestReplayLoadFailureJSON(t *testing.T) {
	path := testutil.WriteFile(t, "bad.json", invalidJSON)

	out, err := execute(t, NewReplayCommand, "json", path)
	require.Error(t, err)

	resp := decodeData(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeReplayMismatch, resp.Error.Code)
}

func TestReplayCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"not_found", []string{"/nonexistent/traces"}, ErrCodeNotFound},
		{"bad_pattern", []string{".", "--pattern", "[abc"}, ErrCodeScanError},
		{"empty_dir", []string{t.TempDir()}, ErrCodeNoFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewReplayCommand, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}
