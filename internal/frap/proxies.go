package frap

import (
	"fmt"

	"github.com/roach88/frap/internal/stream"
)

// slot is the per-run state of one declared driver: its sink proxy and
// the result stream the driver returned for it.
type slot struct {
	decl   *declaration
	result any

	bound   func() bool
	invoke  func() any
	prepare func(target any) (bindFunc, error)
}

// bindFunc binds a checked request stream onto its proxy.
type bindFunc func(sched stream.Scheduler) error

// prepareTyped returns the check step for a proxy of request type Req.
// The target must be a *stream.Stream[Req]; a nil one leaves the proxy
// unbound and yields a nil bindFunc. Checking has no side effects, so a
// request rejected later in the same run leaves every proxy untouched.
func prepareTyped[Req any](proxy *stream.Proxy[Req]) func(any) (bindFunc, error) {
	return func(target any) (bindFunc, error) {
		s, ok := target.(*stream.Stream[Req])
		if !ok {
			if target == nil {
				return nil, nil
			}
			return nil, fmt.Errorf("request stream is %T, want %T", target, s)
		}
		if s == nil {
			return nil, nil
		}
		if proxy.Bound() {
			return nil, stream.ErrAlreadyBound
		}
		return func(sched stream.Scheduler) error {
			return proxy.Imitate(stream.Delay(s, sched))
		}, nil
	}
}

// createProxies allocates exactly one sink proxy per declared driver, in
// declaration order.
func createProxies(r *Registry) []*slot {
	slots := make([]*slot, len(r.decls))
	for i, d := range r.decls {
		slots[i] = d.start()
	}
	return slots
}

// callDrivers invokes every driver once, in declaration order, with its
// proxy, and collects the result streams.
func callDrivers(slots []*slot) Results {
	byDecl := make(map[*declaration]*slot, len(slots))
	for _, s := range slots {
		s.result = s.invoke()
		byDecl[s.decl] = s
	}
	return Results{slots: byDecl}
}

// Results holds the result stream of every driver for one run. Read it
// with the driver's handle: handle.From(results).
type Results struct {
	slots map[*declaration]*slot
}

// Len returns the number of driver results.
func (r Results) Len() int {
	return len(r.slots)
}

func (r Results) lookup(d *declaration) *slot {
	if d == nil {
		return nil
	}
	return r.slots[d]
}

func resultOf[Res any](results Results, d *declaration) *stream.Stream[Res] {
	s := results.lookup(d)
	if s == nil {
		name := "<zero handle>"
		if d != nil {
			name = d.name
		}
		return stream.Throw[Res](fmt.Errorf("driver %q: %w", name, ErrUnknownDriver))
	}
	return s.result.(*stream.Stream[Res])
}
