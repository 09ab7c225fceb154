package store

import (
	"context"
	"fmt"

	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

// Journal records every snapshot of one run's state stream.
//
// A Journal is an observer like any other subscriber: it is driven on the
// scheduler goroutine and must only be closed from there (or after the
// scheduler has stopped).
type Journal struct {
	store *Store
	ctx   context.Context
	runID string
	tick  func() int64

	sub      *stream.Subscription[state.Record]
	seq      int64
	err      error
	finished bool
}

// Record subscribes a journal to states. Snapshots are written with seq
// 0, 1, 2, ... and the turn reported by tick. The run row must already
// exist (see WriteRun).
//
// When states fails the run is finished with the error message; when it
// completes it is finished cleanly. Write errors stop recording and are
// reported by Err.
func (s *Store) Record(ctx context.Context, runID string, states *stream.Stream[state.Record], tick func() int64) *Journal {
	j := &Journal{store: s, ctx: ctx, runID: runID, tick: tick}
	j.sub = states.Subscribe(stream.Observer[state.Record]{
		Next:     j.write,
		Error:    func(err error) { j.finish(err.Error()) },
		Complete: func() { j.finish("") },
	})
	return j
}

func (j *Journal) write(r state.Record) {
	if j.err != nil || j.finished {
		return
	}

	var tick int64
	if j.tick != nil {
		tick = j.tick()
	}

	err := j.store.WriteSnapshot(j.ctx, Snapshot{
		RunID: j.runID,
		Seq:   j.seq,
		Tick:  tick,
		State: r,
	})
	if err != nil {
		j.err = fmt.Errorf("journal run %q seq %d: %w", j.runID, j.seq, err)
		return
	}
	j.seq++
}

func (j *Journal) finish(runErr string) {
	if j.finished {
		return
	}
	j.finished = true
	if err := j.store.FinishRun(j.ctx, j.runID, runErr); err != nil && j.err == nil {
		j.err = err
	}
}

// Count returns the number of snapshots written.
func (j *Journal) Count() int64 {
	return j.seq
}

// Err returns the first write error, if any.
func (j *Journal) Err() error {
	return j.err
}

// Close stops recording and marks the run finished if the state stream
// has not already ended it. Returns the first error seen.
func (j *Journal) Close() error {
	if j.sub != nil {
		j.sub.Unsubscribe()
		j.sub = nil
	}
	j.finish("")
	return j.err
}
