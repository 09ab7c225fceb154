package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/frap/internal/stream"
)

func TestRecorder_CapturesValuesAndCompletion(t *testing.T) {
	rec := Record(stream.Of(1, 2, 3))

	assert.Equal(t, []int{1, 2, 3}, rec.Values)
	assert.True(t, rec.Completed)
	assert.True(t, rec.Terminated())

	last, ok := rec.Last()
	assert.True(t, ok)
	assert.Equal(t, 3, last)
}

func TestRecorder_CapturesError(t *testing.T) {
	boom := errors.New("boom")
	rec := Record(stream.Throw[string](boom))

	assert.Equal(t, boom, rec.Err)
	assert.Empty(t, rec.Values)
	_, ok := rec.Last()
	assert.False(t, ok)
}

func TestRecorder_Stop(t *testing.T) {
	s := stream.Create[int]()
	rec := Record(s)

	s.Push(1)
	rec.Stop()
	s.Push(2)

	assert.Equal(t, []int{1}, rec.Values)
	assert.False(t, rec.Terminated())
}
