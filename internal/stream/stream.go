package stream

// Observer receives the signals of a Stream. Any callback may be nil.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// producer feeds a Stream once it has its first subscriber.
type producer[T any] interface {
	start(out *Stream[T])
	stop()
}

type streamState int

const (
	stateOpen streamState = iota
	stateErrored
	stateCompleted
)

// Stream is a push-based, multicast sequence of values.
//
// The producer is started by the first subscriber and stopped when the last
// subscription is cancelled. Propagation is synchronous: Push returns only
// after every current subscriber has seen the value.
//
// Termination is sticky. Once a stream errors or completes it never emits
// again, and a late subscriber receives the terminal signal immediately.
//
// Streams are not safe for concurrent use. Drive a graph from one goroutine,
// normally the engine scheduler's.
type Stream[T any] struct {
	prod   producer[T]
	subs   []*Subscription[T]
	active bool

	state streamState
	err   error

	remember bool
	hasLast  bool
	last     T
}

// Subscription is a handle to one observer of a stream.
type Subscription[T any] struct {
	stream   *Stream[T]
	observer Observer[T]
	closed   bool
}

// Unsubscribe stops delivery to this observer. When it was the last one the
// stream's producer is stopped. Calling it more than once is a no-op.
func (sub *Subscription[T]) Unsubscribe() {
	if sub == nil || sub.closed {
		return
	}
	sub.closed = true
	if sub.stream != nil {
		sub.stream.remove(sub)
	}
}

func newStream[T any](p producer[T]) *Stream[T] {
	return &Stream[T]{prod: p}
}

// Create returns a stream without a producer. Values are sent imperatively
// with Push, Fail and End.
func Create[T any]() *Stream[T] {
	return newStream[T](nil)
}

// Subscribe adds an observer and starts the producer if this is the first.
func (s *Stream[T]) Subscribe(o Observer[T]) *Subscription[T] {
	sub := &Subscription[T]{stream: s, observer: o}

	switch s.state {
	case stateErrored:
		sub.closed = true
		if o.Error != nil {
			o.Error(s.err)
		}
		return sub
	case stateCompleted:
		sub.closed = true
		if o.Complete != nil {
			o.Complete()
		}
		return sub
	}

	s.subs = append(s.subs, sub)

	if s.remember && s.hasLast && o.Next != nil {
		o.Next(s.last)
	}

	if !s.active && s.prod != nil && !sub.closed && s.state == stateOpen {
		s.active = true
		s.prod.start(s)
	}

	return sub
}

// Listen is Subscribe with only a Next callback.
func (s *Stream[T]) Listen(next func(T)) *Subscription[T] {
	return s.Subscribe(Observer[T]{Next: next})
}

// Push emits a value to every current subscriber.
// Ignored once the stream has terminated.
func (s *Stream[T]) Push(v T) {
	if s.state != stateOpen {
		return
	}
	if s.remember {
		s.last = v
		s.hasLast = true
	}
	for _, sub := range s.snapshot() {
		if sub.closed {
			continue
		}
		if sub.observer.Next != nil {
			sub.observer.Next(v)
		}
	}
}

// Fail terminates the stream with an error.
func (s *Stream[T]) Fail(err error) {
	if s.state != stateOpen {
		return
	}
	s.state = stateErrored
	s.err = err
	subs := s.terminate()
	for _, sub := range subs {
		if sub.observer.Error != nil {
			sub.observer.Error(err)
		}
	}
}

// End completes the stream.
func (s *Stream[T]) End() {
	if s.state != stateOpen {
		return
	}
	s.state = stateCompleted
	subs := s.terminate()
	for _, sub := range subs {
		if sub.observer.Complete != nil {
			sub.observer.Complete()
		}
	}
}

// Err returns the error that terminated the stream, if any.
func (s *Stream[T]) Err() error {
	return s.err
}

// Done reports whether the stream has terminated.
func (s *Stream[T]) Done() bool {
	return s.state != stateOpen
}

// Active reports whether the producer is running.
func (s *Stream[T]) Active() bool {
	return s.active
}

// Len returns the number of subscribers.
func (s *Stream[T]) Len() int {
	return len(s.subs)
}

// Last returns the remembered value of a Remember stream.
func (s *Stream[T]) Last() (T, bool) {
	return s.last, s.hasLast
}

func (s *Stream[T]) snapshot() []*Subscription[T] {
	subs := make([]*Subscription[T], len(s.subs))
	copy(subs, s.subs)
	return subs
}

// terminate detaches all subscribers and stops the producer.
// Returns the subscribers that must receive the terminal signal.
func (s *Stream[T]) terminate() []*Subscription[T] {
	subs := make([]*Subscription[T], 0, len(s.subs))
	for _, sub := range s.subs {
		if !sub.closed {
			sub.closed = true
			subs = append(subs, sub)
		}
	}
	s.subs = nil
	s.stopProducer()
	return subs
}

func (s *Stream[T]) remove(target *Subscription[T]) {
	for i, sub := range s.subs {
		if sub == target {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	if len(s.subs) == 0 {
		s.stopProducer()
	}
}

func (s *Stream[T]) stopProducer() {
	if !s.active {
		return
	}
	s.active = false
	s.hasLast = false
	if s.prod != nil {
		s.prod.stop()
	}
}
