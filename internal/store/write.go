package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a duplicate id is
// silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	initialJSON, err := marshalState(run.Initial)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, app, initial_state)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.App, initialJSON)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// WriteSnapshot inserts one state snapshot.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting the same
// (run_id, seq) is silently ignored.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteSnapshot(ctx context.Context, snap Snapshot) error {
	stateJSON, err := marshalState(snap.State)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, seq, tick, state)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, snap.RunID, snap.Seq, snap.Tick, stateJSON)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return nil
}

// FinishRun marks a run as finished, recording the error that ended it
// (empty when the run ended normally).
//
// Returns ErrRunNotFound if no run has that id.
func (s *Store) FinishRun(ctx context.Context, runID string, runErr string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished = 1, error = ? WHERE id = ?
	`, runErr, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %q: %w", runID, ErrRunNotFound)
	}
	return nil
}
