package frap

import (
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

// Accumulate folds updates into a running state.
//
// The result emits initial first, then one snapshot per update, each the
// shallow merge of the update over the previous snapshot. It replays the
// latest snapshot to late subscribers. An error on updates terminates it
// with that error. Completion of updates does not complete it: the state
// lives for the whole run.
func Accumulate(initial state.Record, updates *stream.Stream[state.Record]) *stream.Stream[state.Record] {
	open := stream.Merge(updates, stream.Never[state.Record]())
	return stream.Remember(stream.Fold(open, state.Merge, initial.Clone()))
}
