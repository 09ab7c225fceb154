package frap

import (
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

// Main is the application logic. It is called exactly once per run, after
// every driver has been invoked, and must build its outputs only from the
// streams in Sources. The returned streams are lazy graphs; nothing flows
// until the cycle is closed and the state stream is observed.
//
// Returning an error or panicking aborts the run with a *MainError.
type Main[V any] func(Sources[V]) (Sinks, error)

// Sources are the inputs handed to Main.
type Sources[V any] struct {
	// View is the external input stream. Read only.
	View *stream.Stream[V]

	// State is the accumulated state. It replays the current snapshot to
	// every new subscriber, so derived values can be computed from it.
	State *stream.Stream[state.Record]

	// Drivers holds the result stream of every declared driver.
	Drivers Results
}

// Sinks are the outputs of Main.
type Sinks struct {
	// Updates are partial patches folded into the state. May be nil.
	Updates *stream.Stream[state.Record]

	// Requests are the streams sent to drivers, built with
	// handle.Request. A driver with no request here stays unbound.
	Requests []Request
}

// Request is a request stream addressed to one driver.
type Request struct {
	decl   *declaration
	target any
}

// Driver returns the name of the addressed driver.
func (r Request) Driver() string {
	if r.decl == nil {
		return ""
	}
	return r.decl.name
}
