package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	RunID string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID      string          `json:"run_id"`
	App        string          `json:"app"`
	Snapshots  int             `json:"snapshots"`
	Finished   bool            `json:"finished"`
	RunError   string          `json:"run_error,omitempty"`
	Consistent bool            `json:"consistent"`
	Problem    string          `json:"problem,omitempty"`
	Final      json.RawMessage `json:"final,omitempty"`
	Patches    []string        `json:"patches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs          []ReplayRunResult `json:"runs"`
	TotalRuns     int               `json:"total_runs"`
	AllConsistent bool              `json:"all_consistent"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <db>",
		Short: "Replay journaled runs and verify them",
		Long: `Read runs back from a journal and verify that every run's snapshots
are the fold of shallow-merge updates over its initial state.

The update patches are recovered from consecutive snapshots; --verbose
prints them.

Exit codes:
  0 - All runs are consistent
  1 - At least one run is inconsistent
  2 - Command error (database not found, unknown run, etc.)

Examples:
  frap replay ./frap.db
  frap replay ./frap.db --run 0192a7c4-...
  frap replay ./frap.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, dbPath string, cmd *cobra.Command) error {
	ctx := context.Background()

	// Open would create a missing database; replaying one makes no sense.
	if _, err := os.Stat(dbPath); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	result := ReplayResult{
		Runs:          make([]ReplayRunResult, 0, len(runIDs)),
		TotalRuns:     len(runIDs),
		AllConsistent: true,
	}

	for _, id := range runIDs {
		runResult, err := replayRun(ctx, st, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", id), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Consistent {
			result.AllConsistent = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayRun verifies one run. Journal inconsistencies are reported in the
// result; any other failure is returned.
func replayRun(ctx context.Context, st *store.Store, runID string) (ReplayRunResult, error) {
	replay, err := st.Replay(ctx, runID)
	if errors.Is(err, store.ErrInconsistentJournal) {
		run, readErr := st.ReadRun(ctx, runID)
		if readErr != nil {
			return ReplayRunResult{}, readErr
		}
		return ReplayRunResult{
			RunID:    run.ID,
			App:      run.App,
			Finished: run.Finished,
			RunError: run.Error,
			Problem:  err.Error(),
		}, nil
	}
	if err != nil {
		return ReplayRunResult{}, err
	}

	final, err := state.MarshalCanonical(replay.Final())
	if err != nil {
		return ReplayRunResult{}, err
	}

	patches := make([]string, len(replay.Patches))
	for i, p := range replay.Patches {
		patches[i] = p.String()
	}

	return ReplayRunResult{
		RunID:      replay.Run.ID,
		App:        replay.Run.App,
		Snapshots:  len(replay.Snapshots),
		Finished:   replay.Run.Finished,
		RunError:   replay.Run.Error,
		Consistent: true,
		Final:      final,
		Patches:    patches,
	}, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllConsistent {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_INCONSISTENT",
			Message: "journal verification failed",
		}
	}

	out := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	if err := out.Respond(response); err != nil {
		return err
	}

	if !result.AllConsistent {
		return NewExitError(ExitFailure, "journal verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Consistent {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s (%s)\n", status, run.RunID, run.App)

		if !run.Consistent {
			fmt.Fprintf(w, "  Problem: %s\n", run.Problem)
			fmt.Fprintln(w)
			continue
		}

		fmt.Fprintf(w, "  Snapshots: %d\n", run.Snapshots)
		if run.RunError != "" {
			fmt.Fprintf(w, "  Ended with error: %s\n", run.RunError)
		} else if !run.Finished {
			fmt.Fprintln(w, "  Not finished")
		}
		fmt.Fprintf(w, "  Final: %s\n", run.Final)

		if verbose {
			for i, p := range run.Patches {
				fmt.Fprintf(w, "  [%d] %s\n", i+1, p)
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllConsistent {
		fmt.Fprintln(w, "✓ All runs verified consistent")
		return nil
	}

	fmt.Fprintln(w, "✗ Journal verification failed")
	return NewExitError(ExitFailure, "journal verification failed")
}
