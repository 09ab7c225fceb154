package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: one run of a demo application
// driven by a fixed sequence of view events.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// App is the demo application to run (see demo.Catalog).
	App string `yaml:"app"`

	// Initial overrides the application's default starting state.
	Initial map[string]any `yaml:"initial,omitempty"`

	// InitialFile loads the starting state from a .cue, .yaml or .json
	// file. Relative paths are resolved against the scenario's directory.
	// Mutually exclusive with Initial.
	InitialFile string `yaml:"initial_file,omitempty"`

	// View lists the view events. The graph settles after each one.
	View []string `yaml:"view"`

	// MaxSteps caps the scheduler's turns. Zero uses DefaultMaxSteps.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// RunID is a fixed run identifier. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// ExpectStates, when present, must equal the emitted snapshots exactly.
	ExpectStates []map[string]any `yaml:"expect_states,omitempty"`

	// Assertions validate the emitted snapshots and the run's outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": the last snapshot contains Expect
	// - "state_contains": some snapshot contains Expect
	// - "state_count": exactly Count snapshots were emitted
	// - "driver_bound" / "driver_unbound": Driver's proxy binding
	// - "error": the run failed with a message containing Contains
	// - "no_error": the run did not fail
	Type string `yaml:"type"`

	// Expect contains expected field values. Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of snapshots (used by state_count).
	Count int `yaml:"count,omitempty"`

	// Driver names a declared driver (used by driver_bound, driver_unbound).
	Driver string `yaml:"driver,omitempty"`

	// Contains is a substring of the expected error (used by error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertStateContains = "state_contains"
	AssertStateCount    = "state_count"
	AssertDriverBound   = "driver_bound"
	AssertDriverUnbound = "driver_unbound"
	AssertError         = "error"
	AssertNoError       = "no_error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative initial_file against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.InitialFile != "" && !filepath.IsAbs(scenario.InitialFile) && basePath != "" {
		scenario.InitialFile = filepath.Join(basePath, scenario.InitialFile)
	}
	if scenario.InitialFile != "" {
		if _, err := os.Stat(scenario.InitialFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: initial_file not found: %s", scenario.InitialFile)
		}
	}

	return scenario, nil
}

// ParseScenario decodes a scenario document with strict field validation
// (catches typos like "assertion:" vs "assertions:").
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.App == "" {
		return fmt.Errorf("app is required")
	}

	if s.Initial != nil && s.InitialFile != "" {
		return fmt.Errorf("initial and initial_file are mutually exclusive")
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative")
	}

	if len(s.Assertions) == 0 && len(s.ExpectStates) == 0 {
		return fmt.Errorf("assertions or expect_states is required")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

// validateAssertion checks that assertion has required fields for its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertFinalState, AssertStateContains:
		if len(a.Expect) == 0 {
			return fmt.Errorf("%s requires expect", a.Type)
		}
	case AssertStateCount:
		if a.Count <= 0 {
			return fmt.Errorf("state_count requires a positive count")
		}
	case AssertDriverBound, AssertDriverUnbound:
		if a.Driver == "" {
			return fmt.Errorf("%s requires driver", a.Type)
		}
	case AssertError:
		if a.Contains == "" {
			return fmt.Errorf("error requires contains")
		}
	case AssertNoError:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
