package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/store"
)

// journal writes a run with the given snapshots into a fresh database and
// returns its path.
func journal(t *testing.T, runs map[string][]state.Record) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "frap.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for id, snaps := range runs {
		var initial state.Record
		if len(snaps) > 0 {
			initial = snaps[0]
		}
		require.NoError(t, st.WriteRun(ctx, store.Run{ID: id, App: "echo", Initial: initial}))
		for i, s := range snaps {
			require.NoError(t, st.WriteSnapshot(ctx, store.Snapshot{RunID: id, Seq: int64(i), Tick: int64(i), State: s}))
		}
		require.NoError(t, st.FinishRun(ctx, id, ""))
	}
	return dbPath
}

func executeReplay(t *testing.T, rootOpts *RootOptions, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestReplay_ConsistentRun(t *testing.T) {
	dbPath := journal(t, map[string][]state.Record{
		"run-1": {{"foo": "hello"}, {"foo": "world"}},
	})

	stdout, err := executeReplay(t, &RootOptions{Format: "text"}, dbPath)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Replay Summary: 1 run(s)")
	assert.Contains(t, stdout, "✓ Run: run-1 (echo)")
	assert.Contains(t, stdout, "Snapshots: 2")
	assert.Contains(t, stdout, `Final: {"foo":"world"}`)
	assert.Contains(t, stdout, "✓ All runs verified consistent")
	assert.NotContains(t, stdout, "[1]", "patches are only listed with --verbose")
}

func TestReplay_VerboseListsPatches(t *testing.T) {
	dbPath := journal(t, map[string][]state.Record{
		"run-1": {{"a": int64(1)}, {"a": int64(1), "b": int64(2)}, {"a": int64(3), "b": int64(2)}},
	})

	stdout, err := executeReplay(t, &RootOptions{Format: "text", Verbose: true}, dbPath)
	require.NoError(t, err)

	assert.Contains(t, stdout, `[1] {"b":2}`)
	assert.Contains(t, stdout, `[2] {"a":3}`)
}

func TestReplay_InconsistentRun(t *testing.T) {
	dbPath := journal(t, map[string][]state.Record{
		"run-1": {{"a": int64(1), "b": int64(2)}, {"a": int64(1)}},
	})

	stdout, err := executeReplay(t, &RootOptions{Format: "text"}, dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, stdout, "✗ Run: run-1 (echo)")
	assert.Contains(t, stdout, "Problem:")
	assert.Contains(t, stdout, "✗ Journal verification failed")
}

func TestReplay_SelectRun(t *testing.T) {
	dbPath := journal(t, map[string][]state.Record{
		"run-1": {{"foo": "a"}},
		"run-2": {{"foo": "b"}, {"foo": "c"}},
	})

	stdout, err := executeReplay(t, &RootOptions{Format: "text"}, dbPath, "--run", "run-2")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Replay Summary: 1 run(s)")
	assert.Contains(t, stdout, "run-2")
	assert.NotContains(t, stdout, "run-1")
}

func TestReplay_UnknownRun(t *testing.T) {
	dbPath := journal(t, map[string][]state.Record{"run-1": {{"foo": "a"}}})

	_, err := executeReplay(t, &RootOptions{Format: "text"}, dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestReplay_EmptyDatabase(t *testing.T) {
	dbPath := journal(t, nil)

	stdout, err := executeReplay(t, &RootOptions{Format: "text"}, dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs found in database.")
}

func TestReplay_MissingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")

	_, err := executeReplay(t, &RootOptions{Format: "text"}, dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "replay must not create the database")
}

func TestReplay_JSONOutput(t *testing.T) {
	dbPath := journal(t, map[string][]state.Record{
		"run-1": {{"foo": "hello"}, {"foo": "world"}},
	})

	stdout, err := executeReplay(t, &RootOptions{Format: "json"}, dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllConsistent)
	require.Len(t, resp.Data.Runs, 1)

	run := resp.Data.Runs[0]
	assert.Equal(t, "run-1", run.RunID)
	assert.True(t, run.Finished)
	assert.Equal(t, 2, run.Snapshots)
	assert.Equal(t, []string{`{"foo":"world"}`}, run.Patches)
	assert.JSONEq(t, `{"foo":"world"}`, string(run.Final))
}

func TestReplay_JSONInconsistent(t *testing.T) {
	dbPath := journal(t, map[string][]state.Record{
		"run-1": {{"a": int64(1), "b": int64(2)}, {"a": int64(1)}},
	})

	stdout, err := executeReplay(t, &RootOptions{Format: "json"}, dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_INCONSISTENT", resp.Error.Code)
}

func TestReplay_RecordedRunRoundTrips(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "frap.db")
	_, _, err := executeRun(t, &RunOptions{}, "2\n", "pingpong", "--db", dbPath)
	require.NoError(t, err)

	stdout, err := executeReplay(t, &RootOptions{Format: "text"}, dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Run: run-1 (pingpong)")
	assert.Contains(t, stdout, "Snapshots: 5")
	assert.Contains(t, stdout, `Final: {"ball":0,"hits":2,"last":"pong"}`)
}
