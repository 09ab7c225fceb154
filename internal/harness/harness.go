package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/frap/internal/demo"
	"github.com/roach88/frap/internal/engine"
	"github.com/roach88/frap/internal/frap"
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
	"github.com/roach88/frap/internal/testutil"
)

// DefaultMaxSteps bounds a scenario that sets no max_steps. No demo
// interaction comes close; hitting it means the graph never settles.
const DefaultMaxSteps = 10000

// Harness drives one scenario run on a deterministic scheduler.
type Harness struct {
	sched  *engine.Scheduler
	view   *stream.Stream[string]
	run    *frap.App
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Every scenario gets its own scheduler and a fixed run id, so repeated
// runs produce identical results. View events are pushed one at a time
// and the scheduler is drained after each, which is how the graph would
// settle between user interactions.
//
// A returned error means the scenario could not be executed at all
// (unknown app, unreadable initial state). Failures of the run itself are
// reported in Result.Error and checked by assertions.
func Run(scenario *Scenario) (*Result, error) {
	app, err := demo.Lookup(scenario.App, demo.DefaultEnv())
	if err != nil {
		return nil, err
	}

	initial, err := loadInitial(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial state: %w", err)
	}

	maxSteps := scenario.MaxSteps
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}

	// Suppress logs in tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := engine.New(engine.WithLogger(logger), engine.WithMaxSteps(maxSteps))
	view := stream.Create[string]()

	result := NewResult()
	run, err := app.Start(initial, view,
		frap.WithScheduler(sched),
		frap.WithLogger(logger),
		frap.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
	)
	if err != nil {
		result.Error = err.Error()
	} else {
		h := &Harness{sched: sched, view: view, run: run, logger: logger}
		h.drive(scenario.View, result)
	}

	for _, msg := range compareStates(result.States, scenario.ExpectStates) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// drive subscribes to the state, feeds the view events and records what
// the run produced. It stops at the first runtime failure.
func (h *Harness) drive(events []string, result *Result) {
	rec := testutil.Record(h.run.State)
	defer rec.Stop()

	for i, event := range events {
		if rec.Terminated() {
			break
		}
		event := event
		h.sched.Schedule(func() { h.view.Push(event) })
		if err := h.sched.Drain(); err != nil {
			result.Error = err.Error()
			h.logger.Info("view event failed", "index", i, "error", err)
			break
		}
	}

	if result.Error == "" && rec.Err != nil {
		result.Error = rec.Err.Error()
	}
	result.States = append(result.States, rec.Values...)
	result.Steps = h.sched.Steps()
	for _, name := range h.run.Drivers() {
		result.Bound[name] = h.run.Bound(name)
	}
}

func loadInitial(s *Scenario) (state.Record, error) {
	switch {
	case s.InitialFile != "":
		return state.LoadFile(s.InitialFile)
	case s.Initial != nil:
		v, err := state.Normalize(state.Record(s.Initial))
		if err != nil {
			return nil, err
		}
		return v.(state.Record), nil
	default:
		return nil, nil
	}
}

// compareStates checks the emitted snapshots against expect_states.
// Snapshots are compared by their canonical JSON form.
func compareStates(got []state.Record, want []map[string]any) []string {
	if want == nil {
		return nil
	}

	var errs []string
	if len(got) != len(want) {
		errs = append(errs, fmt.Sprintf("expected %d states, got %d", len(want), len(got)))
	}
	for i := 0; i < min(len(got), len(want)); i++ {
		g, w := got[i].String(), state.Record(want[i]).String()
		if g != w {
			errs = append(errs, fmt.Sprintf("state[%d]: expected %s, got %s", i, w, g))
		}
	}
	return errs
}
