package stream

import "errors"

var (
	// ErrAlreadyBound is returned when a proxy is imitated a second time.
	ErrAlreadyBound = errors.New("stream: proxy already bound")

	// ErrNilTarget is returned when a proxy is asked to imitate nil.
	ErrNilTarget = errors.New("stream: imitate target is nil")

	// ErrSelfImitation is returned when a proxy is asked to imitate itself.
	ErrSelfImitation = errors.New("stream: proxy cannot imitate itself")
)

// Proxy is a forward-reference placeholder for a stream that does not exist
// yet. Consumers subscribe to it first; the real producer is attached later
// with Imitate.
//
// Before it is bound a proxy carries no events. After Imitate it relays
// every subsequent signal of its target to all of its current and future
// subscribers. A proxy is bound at most once.
type Proxy[T any] struct {
	*Stream[T]
	relay *relay[T]
}

// NewProxy allocates an unbound proxy.
func NewProxy[T any]() *Proxy[T] {
	r := &relay[T]{}
	return &Proxy[T]{Stream: newStream[T](r), relay: r}
}

// Imitate binds the proxy to target.
//
// The target must not be the proxy itself, and in a cyclic graph the path
// from target back to the proxy should cross a Delay; otherwise an emission
// re-enters the graph on the same call stack.
func (p *Proxy[T]) Imitate(target *Stream[T]) error {
	if target == nil {
		return ErrNilTarget
	}
	if target == p.Stream {
		return ErrSelfImitation
	}
	if p.relay.target != nil {
		return ErrAlreadyBound
	}
	p.relay.target = target
	if p.relay.out != nil {
		p.relay.attach()
	}
	return nil
}

// Bound reports whether Imitate has succeeded.
func (p *Proxy[T]) Bound() bool {
	return p.relay.target != nil
}

// relay is the producer behind a proxy. It subscribes to the target only
// while the proxy itself has subscribers.
type relay[T any] struct {
	target *Stream[T]
	out    *Stream[T]
	sub    *Subscription[T]
}

func (r *relay[T]) start(out *Stream[T]) {
	r.out = out
	r.attach()
}

func (r *relay[T]) attach() {
	if r.target == nil || r.sub != nil {
		return
	}
	out := r.out
	r.sub = r.target.Subscribe(Observer[T]{
		Next:     out.Push,
		Error:    out.Fail,
		Complete: out.End,
	})
}

func (r *relay[T]) stop() {
	r.out = nil
	if r.sub != nil {
		r.sub.Unsubscribe()
		r.sub = nil
	}
}
