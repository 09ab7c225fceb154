package engine

import "sync/atomic"

// Clock is the scheduler's logical clock. It counts turns.
//
// Every task the scheduler executes is stamped with the next value of the
// clock, so "one scheduling tick later" has a precise meaning: a value that
// crosses a feedback edge is observed at a strictly greater turn than the
// one in which it was produced. Wall-clock time is never used for ordering.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations), but
// only the scheduler loop advances it in practice.
type Clock struct {
	turn atomic.Int64
}

// NewClock creates a new clock starting at turn 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at a given turn.
// Used to resume numbering when a journal is continued.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.turn.Store(start)
	return c
}

// Next advances the clock and returns the new turn.
func (c *Clock) Next() int64 {
	return c.turn.Add(1)
}

// Current returns the current turn without advancing.
// Turn 0 means no task has executed yet (construction time).
func (c *Clock) Current() int64 {
	return c.turn.Load()
}
