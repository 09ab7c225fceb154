package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/roach88/frap/internal/state"
)

// ErrInconsistentJournal is returned when the recorded snapshots of a run
// cannot be the output of folding updates over its initial state.
var ErrInconsistentJournal = errors.New("journal is inconsistent")

// Replay is a run read back from the journal, with the update patches
// recovered from consecutive snapshots.
type Replay struct {
	Run       Run
	Snapshots []Snapshot

	// Patches[i] is the update that turned Snapshots[i] into
	// Snapshots[i+1].
	Patches []state.Record
}

// Final returns the last recorded state, or the initial state when the
// run recorded no snapshot.
func (r *Replay) Final() state.Record {
	if len(r.Snapshots) == 0 {
		return r.Run.Initial
	}
	return r.Snapshots[len(r.Snapshots)-1].State
}

// Replay reads a run and verifies its snapshot sequence:
//   - seq numbers are contiguous from 0
//   - snapshot 0 is the initial state
//   - ticks never decrease (snapshots are observed in turn order)
//   - no snapshot drops a key of its predecessor (merges never delete)
//
// Verification failures wrap ErrInconsistentJournal.
func (s *Store) Replay(ctx context.Context, runID string) (*Replay, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	snaps, err := s.ReadSnapshots(ctx, runID)
	if err != nil {
		return nil, err
	}

	r := &Replay{Run: run, Snapshots: snaps, Patches: []state.Record{}}
	if len(snaps) == 0 {
		return r, nil
	}

	for i, snap := range snaps {
		if snap.Seq != int64(i) {
			return nil, fmt.Errorf("run %q: snapshot %d has seq %d: %w", runID, i, snap.Seq, ErrInconsistentJournal)
		}
		if i > 0 && snap.Tick < snaps[i-1].Tick {
			return nil, fmt.Errorf("run %q: snapshot %d observed at turn %d, before turn %d: %w",
				runID, i, snap.Tick, snaps[i-1].Tick, ErrInconsistentJournal)
		}
	}

	same, err := equalStates(run.Initial, snaps[0].State)
	if err != nil {
		return nil, err
	}
	if !same {
		return nil, fmt.Errorf("run %q: first snapshot is not the initial state: %w", runID, ErrInconsistentJournal)
	}

	for i := 1; i < len(snaps); i++ {
		patch, err := Diff(snaps[i-1].State, snaps[i].State)
		if err != nil {
			return nil, fmt.Errorf("run %q: snapshot %d: %w", runID, i, err)
		}
		r.Patches = append(r.Patches, patch)
	}

	return r, nil
}

// Diff returns the smallest patch that shallow-merges prev into next: the
// top-level keys of next whose value is absent from or different in prev.
// Values are compared by canonical JSON.
//
// Returns ErrInconsistentJournal if next lacks a key of prev.
func Diff(prev, next state.Record) (state.Record, error) {
	for k := range prev {
		if _, ok := next[k]; !ok {
			return nil, fmt.Errorf("key %q disappeared: %w", k, ErrInconsistentJournal)
		}
	}

	patch := state.Record{}
	for _, k := range next.Keys() {
		old, ok := prev[k]
		if ok {
			same, err := equalValues(old, next[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			if same {
				continue
			}
		}
		patch[k] = next[k]
	}
	return patch, nil
}

func equalStates(a, b state.Record) (bool, error) {
	if a == nil {
		a = state.Record{}
	}
	if b == nil {
		b = state.Record{}
	}
	return equalValues(a, b)
}

func equalValues(a, b any) (bool, error) {
	ja, err := state.MarshalCanonical(a)
	if err != nil {
		return false, err
	}
	jb, err := state.MarshalCanonical(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ja, jb), nil
}
