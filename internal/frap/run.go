package frap

import (
	"fmt"

	"github.com/roach88/frap/internal/engine"
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

var (
	_ stream.Scheduler = (*engine.Scheduler)(nil)
	_ stream.Holder    = (*engine.Scheduler)(nil)
)

// Runner starts a run of a set-up application against a view stream.
type Runner[V any] func(view *stream.Stream[V], opts ...Option) (*App, error)

// Setup binds main, the initial state and the drivers into a Runner.
//
//	run := frap.Setup(main, state.Record{"foo": "hello"}, drivers)
//	app, err := run(view, frap.WithDebug(true))
func Setup[V any](main Main[V], initial state.Record, drivers *Registry) Runner[V] {
	return func(view *stream.Stream[V], opts ...Option) (*App, error) {
		return Run(main, initial, drivers, view, opts...)
	}
}

// App is one wired run. Nothing flows until State is subscribed and the
// Scheduler executes turns.
type App struct {
	// ID identifies the run in logs and in the journal.
	ID string

	// State is the accumulated state stream, the only observed output.
	// Subscribe once for the lifetime of the run: when its last observer
	// unsubscribes the whole graph is released and the run ends. A later
	// subscriber starts a fresh fold from the initial state.
	State *stream.Stream[state.Record]

	// Scheduler carries every feedback edge.
	Scheduler *engine.Scheduler

	slots []*slot
}

// Bound reports whether the named driver's proxy was bound to a request
// stream. Unknown names report false.
func (a *App) Bound(name string) bool {
	for _, s := range a.slots {
		if s.decl.name == name {
			return s.bound()
		}
	}
	return false
}

// Drivers returns the driver names in declaration order.
func (a *App) Drivers() []string {
	names := make([]string, len(a.slots))
	for i, s := range a.slots {
		names[i] = s.decl.name
	}
	return names
}

// Run wires one run: it allocates a proxy per driver, invokes every
// driver, invokes main once, then closes the cycle by binding main's
// request streams onto the proxies and its updates onto the accumulator,
// each through a scheduler delay.
//
// A nil view is treated as a view that never emits. A nil registry
// declares no drivers.
func Run[V any](main Main[V], initial state.Record, drivers *Registry, view *stream.Stream[V], opts ...Option) (*App, error) {
	if main == nil {
		return nil, ErrNilMain
	}
	if drivers == nil {
		drivers = NewRegistry()
	}
	if view == nil {
		view = stream.Never[V]()
	}

	cfg := newConfig(opts)
	runID := cfg.runIDs.Generate()
	logger := cfg.logger.With("run_id", runID)
	tap := newDebugTap(cfg, runID)

	slots := createProxies(drivers)
	results := callDrivers(slots)

	updates := stream.NewProxy[state.Record]()
	states := Accumulate(initial, updates.Stream)

	sinks, err := invokeMain(main, Sources[V]{
		View:    view,
		State:   states,
		Drivers: results,
	})
	if err != nil {
		logger.Error("main failed", "error", err)
		return nil, err
	}

	if err := closeCycle(sinks, slots, updates, cfg.scheduler, tap); err != nil {
		logger.Error("closing cycle failed", "error", err)
		return nil, err
	}

	app := &App{
		ID:        runID,
		State:     tap.states(states),
		Scheduler: cfg.scheduler,
		slots:     slots,
	}

	logger.Debug("run wired",
		"drivers", len(slots),
		"requests", len(sinks.Requests),
	)
	return app, nil
}

func invokeMain[V any](main Main[V], src Sources[V]) (sinks Sinks, err error) {
	defer func() {
		if r := recover(); r != nil {
			sinks = Sinks{}
			err = &MainError{Panic: r}
		}
	}()

	sinks, err = main(src)
	if err != nil {
		return Sinks{}, &MainError{Err: err}
	}
	return sinks, nil
}

// closeCycle binds every request onto its driver's proxy and the update
// stream onto the accumulator. Every edge crosses a scheduler delay, so a
// value produced while a turn runs is consumed on a later turn.
//
// All requests are checked before the first one is bound: a rejected
// request leaves every proxy unbound and nothing queued on the scheduler.
func closeCycle(sinks Sinks, slots []*slot, updates *stream.Proxy[state.Record], sched *engine.Scheduler, tap *debugTap) error {
	byDecl := make(map[*declaration]*slot, len(slots))
	for _, s := range slots {
		byDecl[s.decl] = s
	}

	binds := make([]bindFunc, 0, len(sinks.Requests))
	claimed := make(map[*slot]bool, len(sinks.Requests))
	for _, req := range sinks.Requests {
		s := byDecl[req.decl]
		if s == nil {
			return &BindError{Driver: req.Driver(), Err: ErrUnknownDriver}
		}
		bind, err := s.prepare(req.target)
		if err != nil {
			return &BindError{Driver: s.decl.name, Err: err}
		}
		if bind == nil {
			continue
		}
		if claimed[s] {
			return &BindError{Driver: s.decl.name, Err: stream.ErrAlreadyBound}
		}
		claimed[s] = true
		binds = append(binds, bind)
	}

	for i, bind := range binds {
		if err := bind(sched); err != nil {
			return fmt.Errorf("bind request %d: %w", i, err)
		}
	}

	u := sinks.Updates
	if u == nil {
		u = stream.Never[state.Record]()
	}
	if err := updates.Imitate(stream.Delay(tap.updates(u), sched)); err != nil {
		return fmt.Errorf("bind updates: %w", err)
	}
	return nil
}
