package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/frap/internal/state"
)

// ErrRunNotFound is returned when a run id is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded run of an application.
type Run struct {
	ID       string
	App      string
	Initial  state.Record
	Error    string
	Finished bool
}

// Snapshot is one state emitted by a run. Seq counts snapshots within the
// run (0 is the initial state); Tick is the scheduler turn it was
// observed at.
type Snapshot struct {
	RunID string
	Seq   int64
	Tick  int64
	State state.Record
}

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, app, initial_state, error, finished
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %q: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %q: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns every run ordered by id. Run ids are UUIDv7, so this
// is creation order.
//
// Returns an empty slice (not nil) if the journal has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, app, initial_state, error, finished
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSnapshots returns the snapshots of a run ordered by seq.
//
// Returns an empty slice (not nil) if the run has no snapshots.
func (s *Store) ReadSnapshots(ctx context.Context, runID string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, tick, state
		FROM snapshots
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var (
			snap      Snapshot
			stateJSON string
		)
		if err := rows.Scan(&snap.RunID, &snap.Seq, &snap.Tick, &stateJSON); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.State, err = unmarshalState(stateJSON)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", snap.Seq, err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		initialJSON string
		finished    int
	)
	if err := row.Scan(&run.ID, &run.App, &initialJSON, &run.Error, &finished); err != nil {
		return Run{}, err
	}

	initial, err := unmarshalState(initialJSON)
	if err != nil {
		return Run{}, fmt.Errorf("run %q: %w", run.ID, err)
	}
	run.Initial = initial
	run.Finished = finished != 0
	return run, nil
}
