package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

func TestJournal_RecordsEverySnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1", state.Record{"n": int64(0)})

	states := stream.Create[state.Record]()
	tick := int64(0)
	j := s.Record(ctx, "run-1", states, func() int64 { return tick })

	for i := int64(0); i < 3; i++ {
		tick = i * 2
		states.Push(state.Record{"n": i})
	}
	require.NoError(t, j.Close())
	assert.Equal(t, int64(3), j.Count())

	snaps, err := s.ReadSnapshots(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, int64(4), snaps[2].Tick)
	assert.Equal(t, state.Record{"n": int64(2)}, snaps[2].State)

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, run.Finished)
	assert.Empty(t, run.Error)
}

func TestJournal_StreamErrorFinishesRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRun(t, s, "run-1", state.Record{})

	states := stream.Create[state.Record]()
	j := s.Record(ctx, "run-1", states, nil)
	states.Push(state.Record{})
	states.Fail(errors.New("driver down"))

	require.NoError(t, j.Err())
	require.NoError(t, j.Close())

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, run.Finished)
	assert.Equal(t, "driver down", run.Error)
}

func TestJournal_WriteErrorStopsRecording(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// No run row: the foreign key rejects the first snapshot.
	states := stream.Create[state.Record]()
	j := s.Record(ctx, "ghost", states, nil)
	states.Push(state.Record{})
	states.Push(state.Record{})

	assert.Error(t, j.Err())
	assert.Equal(t, int64(0), j.Count())
	assert.Error(t, j.Close())
}

func TestJournal_CloseUnsubscribes(t *testing.T) {
	s := createTestStore(t)
	writeTestRun(t, s, "run-1", state.Record{})

	states := stream.Create[state.Record]()
	j := s.Record(context.Background(), "run-1", states, nil)
	assert.Equal(t, 1, states.Len())

	require.NoError(t, j.Close())
	assert.Equal(t, 0, states.Len())
}
