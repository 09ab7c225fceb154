package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/frap/internal/state"
)

// TraceSnapshot captures the state trace of a scenario execution.
type TraceSnapshot struct {
	ScenarioName string
	App          string
	States       []state.Record
	Error        string
}

// toCanonicalMap converts a TraceSnapshot to a map for canonical JSON
// serialization. Each snapshot is paired with its sequence number.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	states := make([]any, len(s.States))
	for i, rec := range s.States {
		states[i] = map[string]any{
			"seq":   int64(i),
			"state": map[string]any(rec),
		}
	}

	result := map[string]any{
		"scenario": s.ScenarioName,
		"app":      s.App,
		"states":   states,
	}
	if s.Error != "" {
		result["error"] = s.Error
	}
	return result
}

// RunWithGolden executes a scenario and compares its state trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		App:          scenario.App,
		States:       result.States,
		Error:        result.Error,
	}
	if err := assertSnapshot(t, scenario.Name, snapshot); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName, app string, result *Result) error {
	t.Helper()

	return assertSnapshot(t, scenarioName, TraceSnapshot{
		ScenarioName: scenarioName,
		App:          app,
		States:       result.States,
		Error:        result.Error,
	})
}

// MarshalTrace returns the canonical JSON golden form of a result.
func MarshalTrace(scenarioName, app string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		App:          app,
		States:       result.States,
		Error:        result.Error,
	}
	return state.MarshalCanonical(snapshot.toCanonicalMap())
}

func assertSnapshot(t *testing.T, name string, snapshot TraceSnapshot) error {
	t.Helper()

	traceJSON, err := state.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
