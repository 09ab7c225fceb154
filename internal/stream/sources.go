package stream

import (
	"sync"
	"time"
)

// Scheduler defers work to a later turn. Implemented by *engine.Scheduler.
type Scheduler interface {
	Schedule(task func()) bool
}

// Holder is implemented by schedulers that track work outside their task
// queue. Hold marks such work outstanding until release is called.
type Holder interface {
	Hold() (release func())
}

// SchedulerFunc adapts a plain function to Scheduler.
type SchedulerFunc func(task func()) bool

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(task func()) bool {
	return f(task)
}

type sliceProducer[T any] struct {
	values []T
}

func (p *sliceProducer[T]) start(out *Stream[T]) {
	for _, v := range p.values {
		if out.Done() || !out.Active() {
			return
		}
		out.Push(v)
	}
	out.End()
}

func (p *sliceProducer[T]) stop() {}

// Of emits the given values synchronously on subscription, then completes.
func Of[T any](values ...T) *Stream[T] {
	return FromSlice(values)
}

// FromSlice emits the elements of values, then completes.
func FromSlice[T any](values []T) *Stream[T] {
	vs := make([]T, len(values))
	copy(vs, values)
	return newStream[T](&sliceProducer[T]{values: vs})
}

type neverProducer[T any] struct{}

func (neverProducer[T]) start(*Stream[T]) {}
func (neverProducer[T]) stop()            {}

// Never returns a stream that never emits and never terminates.
func Never[T any]() *Stream[T] {
	return newStream[T](neverProducer[T]{})
}

type emptyProducer[T any] struct{}

func (emptyProducer[T]) start(out *Stream[T]) { out.End() }
func (emptyProducer[T]) stop()                {}

// Empty returns a stream that completes immediately on subscription.
func Empty[T any]() *Stream[T] {
	return newStream[T](emptyProducer[T]{})
}

type throwProducer[T any] struct {
	err error
}

func (p throwProducer[T]) start(out *Stream[T]) { out.Fail(p.err) }
func (p throwProducer[T]) stop()                {}

// Throw returns a stream that fails with err on subscription.
func Throw[T any](err error) *Stream[T] {
	return newStream[T](throwProducer[T]{err: err})
}

type periodicProducer struct {
	sched  Scheduler
	period time.Duration

	mu      sync.Mutex
	ticker  *time.Ticker
	quit    chan struct{}
	gen     int
	release func()
}

func (p *periodicProducer) start(out *Stream[int]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	gen := p.gen
	if h, ok := p.sched.(Holder); ok {
		p.release = h.Hold()
	}
	p.ticker = time.NewTicker(p.period)
	p.quit = make(chan struct{})

	ticker, quit := p.ticker, p.quit
	go func() {
		n := 0
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				i := n
				n++
				// Ticks cross into the stream graph through the scheduler,
				// never from the timer goroutine itself.
				p.sched.Schedule(func() {
					if p.current(gen) {
						out.Push(i)
					}
				})
			}
		}
	}()
}

func (p *periodicProducer) current(gen int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticker != nil && p.gen == gen
}

func (p *periodicProducer) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ticker == nil {
		return
	}
	p.ticker.Stop()
	close(p.quit)
	p.ticker = nil
	if p.release != nil {
		p.release()
		p.release = nil
	}
}

// Periodic emits 0, 1, 2, ... every period. Ticks are delivered as
// scheduler tasks, so the stream only advances while the scheduler runs.
// If sched is a Holder the timer holds it while running.
func Periodic(sched Scheduler, period time.Duration) *Stream[int] {
	return newStream[int](&periodicProducer{sched: sched, period: period})
}
