package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/frap/internal/engine"
	"github.com/roach88/frap/internal/store"
)

// executeRun runs the run command with input on stdin and returns stdout,
// stderr and the command error.
func executeRun(t *testing.T, opts *RunOptions, input string, args ...string) (string, string, error) {
	t.Helper()
	if opts.RootOptions == nil {
		opts.RootOptions = &RootOptions{Format: "text"}
	}
	if opts.RunIDGenerator == nil {
		opts.RunIDGenerator = engine.NewFixedGenerator("run-1")
	}

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRunCommand(opts)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_EchoFromStdin(t *testing.T) {
	stdout, _, err := executeRun(t, &RunOptions{}, "world\n", "echo")
	require.NoError(t, err)

	assert.Equal(t, "{\"foo\":\"hello\"}\n{\"foo\":\"world\"}\n", stdout)
}

func TestRun_BlankLinesAreSkipped(t *testing.T) {
	stdout, _, err := executeRun(t, &RunOptions{}, "a\n\nb\n", "echo")
	require.NoError(t, err)

	assert.Equal(t, "{\"foo\":\"hello\"}\n{\"foo\":\"a\"}\n{\"foo\":\"b\"}\n", stdout)
}

func TestRun_PingPongSettles(t *testing.T) {
	stdout, stderr, err := executeRun(t, &RunOptions{}, "2\n", "pingpong")
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		`{"hits":0}`,
		`{"ball":2,"hits":1,"last":"ping"}`,
		`{"ball":1,"hits":1,"last":"pong"}`,
		`{"ball":1,"hits":2,"last":"ping"}`,
		`{"ball":0,"hits":2,"last":"pong"}`,
	}, "\n")+"\n", stdout)
	assert.Contains(t, stderr, "msg=\"run finished\"")
	assert.Contains(t, stderr, "run_id=run-1")
	assert.Contains(t, stderr, "snapshots=5")
}

func TestRun_ViewFileAndStateFile(t *testing.T) {
	dir := t.TempDir()
	viewPath := filepath.Join(dir, "view.txt")
	statePath := filepath.Join(dir, "state.cue")
	require.NoError(t, os.WriteFile(viewPath, []byte("did_click_button\n"), 0644))
	require.NoError(t, os.WriteFile(statePath, []byte(`toggledButton: "on"`+"\n"), 0644))

	stdout, _, err := executeRun(t, &RunOptions{}, "", "toggle", "--view", viewPath, "--state", statePath)
	require.NoError(t, err)

	assert.Equal(t, "{\"toggledButton\":\"on\"}\n{\"toggledButton\":\"off\"}\n", stdout)
}

func TestRun_JSONFormat(t *testing.T) {
	opts := &RunOptions{RootOptions: &RootOptions{Format: "json"}}
	stdout, _, err := executeRun(t, opts, "world\n", "echo")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		RunID  string    `json:"run_id"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "echo", resp.Data.App)
	require.Len(t, resp.Data.States, 2)
	assert.JSONEq(t, `{"foo":"world"}`, string(resp.Data.States[1]))
	assert.Positive(t, resp.Data.Steps)
}

func TestRun_QuotaExceeded(t *testing.T) {
	opts := &RunOptions{RootOptions: &RootOptions{Format: "json"}}
	stdout, _, err := executeRun(t, opts, "100\n", "pingpong", "--max-steps", "10")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "max steps quota")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_RUN", resp.Error.Code)
}

func TestRun_JournalsIntoDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "frap.db")

	_, _, err := executeRun(t, &RunOptions{}, "a\nb\n", "echo", "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "echo", run.App)
	assert.True(t, run.Finished)
	assert.Empty(t, run.Error)

	replay, err := st.Replay(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, replay.Snapshots, 3)
	assert.Equal(t, "b", replay.Final()["foo"])
}

func TestRun_JournalRecordsFailure(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "frap.db")

	_, _, err := executeRun(t, &RunOptions{}, "100\n", "pingpong", "--db", dbPath, "--max-steps", "10")
	require.Error(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.True(t, run.Finished)
	assert.Contains(t, run.Error, "max steps quota")
}

func TestRun_DebugLogsUpdatesAndStates(t *testing.T) {
	_, stderr, err := executeRun(t, &RunOptions{}, "world\n", "echo", "--debug")
	require.NoError(t, err)

	assert.Contains(t, stderr, "msg=update")
	assert.Contains(t, stderr, "msg=state")
	assert.Contains(t, stderr, `patch="{\"foo\":\"world\"}"`)
}

func TestRun_MetricsServer(t *testing.T) {
	_, stderr, err := executeRun(t, &RunOptions{}, "world\n", "echo", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, stderr, "serving metrics")
}

func TestRun_GreetingsOutliveTheInput(t *testing.T) {
	stdout, _, err := executeRun(t, &RunOptions{}, "did_click_button\n", "toggle", "--greet-every", "5ms")
	require.NoError(t, err)

	for _, greeting := range []string{"Hello 0!", "Hello 1!", "Hello 2!"} {
		assert.Contains(t, stdout, greeting)
	}
	assert.Contains(t, stdout, `"toggledButton":"on"`)
}

func TestRun_UnknownApp(t *testing.T) {
	_, _, err := executeRun(t, &RunOptions{}, "", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown app")
}

func TestRun_BadInputs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing_view_file", []string{"echo", "--view", "/nonexistent/view.txt"}, "failed to open view input"},
		{"missing_state_file", []string{"echo", "--state", "/nonexistent/state.yaml"}, "failed to load state"},
		{"state_not_an_object", []string{"echo", "--state", writeTemp(t, "s.json", "[1,2]")}, "failed to load state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeRun(t, &RunOptions{}, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_RequiresApp(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
