// Package harness provides scenario-based conformance testing for frap
// applications.
//
// A scenario names a demo application, a sequence of view events and the
// expected outcome. The harness runs the application on a deterministic
// scheduler with a fixed run id, pushes one view event at a time and lets
// the graph settle after each, then checks the emitted state snapshots.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	app: toggle
//	initial: { toggledButton: "off" }   # or initial_file: state.cue
//	max_steps: 100
//	view:
//	  - did_click_button
//	expect_states:
//	  - { toggledButton: "off" }
//	  - { toggledButton: "on" }
//	assertions:
//	  - type: final_state
//	    expect: { toggledButton: "on" }
//	  - type: driver_bound
//	    driver: host
//
// # Assertion Types
//
//   - final_state: the last snapshot contains the expected fields
//   - state_contains: some snapshot contains the expected fields
//   - state_count: exactly count snapshots were emitted
//   - driver_bound, driver_unbound: a declared driver's proxy binding
//   - error: the run failed with a message containing the given text
//   - no_error: the run did not fail
//
// # Golden Files
//
// RunWithGolden serializes the snapshot trace as canonical JSON and
// compares it byte-for-byte with testdata/golden/<name>.golden.
package harness
