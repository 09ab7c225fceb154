package harness

import "github.com/roach88/frap/internal/state"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expected state and assertion
	// matched.
	Pass bool `json:"pass"`

	// States holds every snapshot the state stream emitted, in order. The
	// first entry is the initial state.
	States []state.Record `json:"states"`

	// Error is the runtime failure that ended the run, if any: a setup
	// error, a stream error reaching the state, or a quota violation.
	Error string `json:"error,omitempty"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Bound reports, per declared driver, whether its proxy was bound.
	Bound map[string]bool `json:"bound"`

	// Steps is the number of scheduler turns the run took.
	Steps int `json:"steps"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		States: []state.Record{},
		Errors: []string{},
		Bound:  make(map[string]bool),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Final returns the last snapshot, or nil when nothing was emitted.
func (r *Result) Final() state.Record {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
