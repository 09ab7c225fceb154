package testutil

import "github.com/roach88/frap/internal/stream"

// Recorder captures every signal a stream delivers, for assertions.
//
// Not safe for concurrent use; like every stream observer it is driven
// from the scheduler goroutine.
type Recorder[T any] struct {
	Values    []T
	Err       error
	Completed bool

	sub *stream.Subscription[T]
}

// Record subscribes a new Recorder to s.
func Record[T any](s *stream.Stream[T]) *Recorder[T] {
	r := &Recorder[T]{}
	r.sub = s.Subscribe(stream.Observer[T]{
		Next:     func(v T) { r.Values = append(r.Values, v) },
		Error:    func(err error) { r.Err = err },
		Complete: func() { r.Completed = true },
	})
	return r
}

// Last returns the most recent value, if any.
func (r *Recorder[T]) Last() (T, bool) {
	var zero T
	if len(r.Values) == 0 {
		return zero, false
	}
	return r.Values[len(r.Values)-1], true
}

// Terminated reports whether the stream errored or completed.
func (r *Recorder[T]) Terminated() bool {
	return r.Err != nil || r.Completed
}

// Stop unsubscribes the recorder. Values recorded so far are kept.
func (r *Recorder[T]) Stop() {
	r.sub.Unsubscribe()
}
