package stream

// operator derives one stream from another. The hooks keep per-run state
// (fold accumulators, take counters) which is reset on every start.
type operator[In, Out any] struct {
	in  *Stream[In]
	sub *Subscription[In]

	onStart func(out *Stream[Out])
	next    func(out *Stream[Out], v In)
}

func (o *operator[In, Out]) start(out *Stream[Out]) {
	if o.onStart != nil {
		o.onStart(out)
		if out.Done() || !out.Active() {
			return
		}
	}
	o.sub = o.in.Subscribe(Observer[In]{
		Next:     func(v In) { o.next(out, v) },
		Error:    out.Fail,
		Complete: out.End,
	})
}

func (o *operator[In, Out]) stop() {
	if o.sub != nil {
		o.sub.Unsubscribe()
		o.sub = nil
	}
}

// Map applies f to every value.
func Map[T, U any](s *Stream[T], f func(T) U) *Stream[U] {
	return newStream[U](&operator[T, U]{
		in:   s,
		next: func(out *Stream[U], v T) { out.Push(f(v)) },
	})
}

// MapTo replaces every value with v.
func MapTo[T, U any](s *Stream[T], v U) *Stream[U] {
	return newStream[U](&operator[T, U]{
		in:   s,
		next: func(out *Stream[U], _ T) { out.Push(v) },
	})
}

// Filter forwards only the values for which keep returns true.
func Filter[T any](s *Stream[T], keep func(T) bool) *Stream[T] {
	return newStream[T](&operator[T, T]{
		in: s,
		next: func(out *Stream[T], v T) {
			if keep(v) {
				out.Push(v)
			}
		},
	})
}

// Fold emits seed as soon as it starts, then the running reduction of f
// over every value.
func Fold[T, A any](s *Stream[T], f func(A, T) A, seed A) *Stream[A] {
	var acc A
	return newStream[A](&operator[T, A]{
		in: s,
		onStart: func(out *Stream[A]) {
			acc = seed
			out.Push(acc)
		},
		next: func(out *Stream[A], v T) {
			acc = f(acc, v)
			out.Push(acc)
		},
	})
}

// StartWith emits v first, then everything from s.
func StartWith[T any](s *Stream[T], v T) *Stream[T] {
	return newStream[T](&operator[T, T]{
		in:      s,
		onStart: func(out *Stream[T]) { out.Push(v) },
		next:    func(out *Stream[T], x T) { out.Push(x) },
	})
}

// Take forwards the first n values, then completes.
func Take[T any](s *Stream[T], n int) *Stream[T] {
	count := 0
	return newStream[T](&operator[T, T]{
		in: s,
		onStart: func(out *Stream[T]) {
			count = 0
			if n <= 0 {
				out.End()
			}
		},
		next: func(out *Stream[T], v T) {
			count++
			out.Push(v)
			if count >= n {
				out.End()
			}
		},
	})
}

// Tap calls fn with every value before forwarding it. It is meant for
// observation (logging, journaling) and must not feed back into the graph.
func Tap[T any](s *Stream[T], fn func(T)) *Stream[T] {
	return newStream[T](&operator[T, T]{
		in: s,
		next: func(out *Stream[T], v T) {
			fn(v)
			out.Push(v)
		},
	})
}

// Remember forwards s and replays its latest value to late subscribers.
func Remember[T any](s *Stream[T]) *Stream[T] {
	out := newStream[T](&operator[T, T]{
		in:   s,
		next: func(out *Stream[T], v T) { out.Push(v) },
	})
	out.remember = true
	return out
}

// Delay forwards every signal of s one scheduler turn later.
//
// This is the cycle break: a value pushed into a Delay is never delivered
// on the call stack that produced it. Signals keep their relative order
// because the scheduler is FIFO. Signals offered to a stopped scheduler
// are dropped.
func Delay[T any](s *Stream[T], sched Scheduler) *Stream[T] {
	op := &delayOp[T]{in: s, sched: sched}
	return newStream[T](op)
}

type delayOp[T any] struct {
	in    *Stream[T]
	sched Scheduler
	sub   *Subscription[T]
}

func (d *delayOp[T]) start(out *Stream[T]) {
	d.sub = d.in.Subscribe(Observer[T]{
		Next: func(v T) {
			d.sched.Schedule(func() { out.Push(v) })
		},
		Error: func(err error) {
			d.sched.Schedule(func() { out.Fail(err) })
		},
		Complete: func() {
			d.sched.Schedule(out.End)
		},
	})
}

func (d *delayOp[T]) stop() {
	if d.sub != nil {
		d.sub.Unsubscribe()
		d.sub = nil
	}
}

// Merge interleaves several streams. It completes when all inputs have
// completed and fails on the first error.
func Merge[T any](streams ...*Stream[T]) *Stream[T] {
	return newStream[T](&mergeOp[T]{ins: streams})
}

type mergeOp[T any] struct {
	ins  []*Stream[T]
	subs []*Subscription[T]
}

func (m *mergeOp[T]) start(out *Stream[T]) {
	remaining := len(m.ins)
	if remaining == 0 {
		out.End()
		return
	}
	m.subs = make([]*Subscription[T], 0, len(m.ins))
	for _, in := range m.ins {
		if out.Done() || !out.Active() {
			return
		}
		m.subs = append(m.subs, in.Subscribe(Observer[T]{
			Next:  out.Push,
			Error: out.Fail,
			Complete: func() {
				remaining--
				if remaining == 0 {
					out.End()
				}
			},
		}))
	}
}

func (m *mergeOp[T]) stop() {
	for _, sub := range m.subs {
		sub.Unsubscribe()
	}
	m.subs = nil
}

// EndWhen forwards s until other emits or completes.
func EndWhen[T, U any](s *Stream[T], other *Stream[U]) *Stream[T] {
	return newStream[T](&endWhenOp[T, U]{in: s, other: other})
}

type endWhenOp[T, U any] struct {
	in       *Stream[T]
	other    *Stream[U]
	sub      *Subscription[T]
	otherSub *Subscription[U]
}

func (e *endWhenOp[T, U]) start(out *Stream[T]) {
	e.otherSub = e.other.Subscribe(Observer[U]{
		Next:     func(U) { out.End() },
		Error:    out.Fail,
		Complete: out.End,
	})
	if out.Done() {
		return
	}
	e.sub = e.in.Subscribe(Observer[T]{
		Next:     out.Push,
		Error:    out.Fail,
		Complete: out.End,
	})
}

func (e *endWhenOp[T, U]) stop() {
	if e.otherSub != nil {
		e.otherSub.Unsubscribe()
		e.otherSub = nil
	}
	if e.sub != nil {
		e.sub.Unsubscribe()
		e.sub = nil
	}
}

// SampleCombine emits combine(v, latest) for every value v of trigger,
// where latest is the most recent value of other. Trigger values that
// arrive before other has emitted are dropped. Completes with trigger.
func SampleCombine[T, U, R any](trigger *Stream[T], other *Stream[U], combine func(T, U) R) *Stream[R] {
	return newStream[R](&sampleOp[T, U, R]{trigger: trigger, other: other, combine: combine})
}

type sampleOp[T, U, R any] struct {
	trigger *Stream[T]
	other   *Stream[U]
	combine func(T, U) R

	latest    U
	hasLatest bool

	sub      *Subscription[T]
	otherSub *Subscription[U]
}

func (s *sampleOp[T, U, R]) start(out *Stream[R]) {
	var zero U
	s.latest, s.hasLatest = zero, false

	s.otherSub = s.other.Subscribe(Observer[U]{
		Next: func(u U) {
			s.latest = u
			s.hasLatest = true
		},
		Error: out.Fail,
	})
	if out.Done() {
		return
	}
	s.sub = s.trigger.Subscribe(Observer[T]{
		Next: func(v T) {
			if s.hasLatest {
				out.Push(s.combine(v, s.latest))
			}
		},
		Error:    out.Fail,
		Complete: out.End,
	})
}

func (s *sampleOp[T, U, R]) stop() {
	if s.otherSub != nil {
		s.otherSub.Unsubscribe()
		s.otherSub = nil
	}
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
}
