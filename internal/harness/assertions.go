package harness

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/frap/internal/state"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	States   []state.Record // Emitted snapshots for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.States) > 0 {
		fmt.Fprintf(&buf, "\nStates:\n")
		for i, s := range e.States {
			fmt.Fprintf(&buf, "  [%d] %s\n", i, s)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages. An empty slice means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFinalState:
		return assertFinalState(result, a)
	case AssertStateContains:
		return assertStateContains(result, a)
	case AssertStateCount:
		return assertStateCount(result, a)
	case AssertDriverBound:
		return assertDriverBinding(result, a, true)
	case AssertDriverUnbound:
		return assertDriverBinding(result, a, false)
	case AssertError:
		return assertError(result, a)
	case AssertNoError:
		return assertNoError(result)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertFinalState checks that the last snapshot contains the expected
// fields (subset semantics).
func assertFinalState(result *Result, a Assertion) error {
	final := result.Final()
	if final == nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("final state containing %s", describe(a.Expect)),
			Actual:   "no state was emitted",
		}
	}
	if field, ok := contains(final, a.Expect); !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("field %q = %s", field, describe(a.Expect[field])),
			Actual:   fmt.Sprintf("final state %s", final),
			States:   result.States,
		}
	}
	return nil
}

// assertStateContains checks that at least one snapshot contains the
// expected fields.
func assertStateContains(result *Result, a Assertion) error {
	for _, s := range result.States {
		if _, ok := contains(s, a.Expect); ok {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertStateContains,
		Expected: fmt.Sprintf("a state containing %s", describe(a.Expect)),
		Actual:   "not found among emitted states",
		States:   result.States,
	}
}

// assertStateCount checks the exact number of emitted snapshots.
func assertStateCount(result *Result, a Assertion) error {
	if len(result.States) != a.Count {
		return &AssertionError{
			Type:     AssertStateCount,
			Expected: fmt.Sprintf("%d states", a.Count),
			Actual:   fmt.Sprintf("%d states", len(result.States)),
			States:   result.States,
		}
	}
	return nil
}

func assertDriverBinding(result *Result, a Assertion, want bool) error {
	bound, declared := result.Bound[a.Driver]
	if !declared {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("driver %q to be declared", a.Driver),
			Actual:   fmt.Sprintf("declared drivers: %s", describeDrivers(result.Bound)),
		}
	}
	if bound != want {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("driver %q bound=%t", a.Driver, want),
			Actual:   fmt.Sprintf("bound=%t", bound),
		}
	}
	return nil
}

func assertError(result *Result, a Assertion) error {
	if !strings.Contains(result.Error, a.Contains) {
		actual := result.Error
		if actual == "" {
			actual = "run succeeded"
		}
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error containing %q", a.Contains),
			Actual:   actual,
			States:   result.States,
		}
	}
	return nil
}

func assertNoError(result *Result) error {
	if result.Error != "" {
		return &AssertionError{
			Type:     AssertNoError,
			Expected: "run to succeed",
			Actual:   result.Error,
			States:   result.States,
		}
	}
	return nil
}

// contains reports whether every expected field is present in s with an
// equal value. On failure it returns the first mismatching field in
// sorted order.
func contains(s state.Record, expect map[string]any) (string, bool) {
	for _, key := range state.Record(expect).Keys() {
		got, ok := s[key]
		if !ok || !valuesEqual(expect[key], got) {
			return key, false
		}
	}
	return "", true
}

// valuesEqual compares two values through their canonical JSON encoding,
// so 3 (int from YAML) equals int64(3) from a state file.
func valuesEqual(expected, actual any) bool {
	e, err := state.MarshalCanonical(expected)
	if err != nil {
		return false
	}
	a, err := state.MarshalCanonical(actual)
	if err != nil {
		return false
	}
	return bytes.Equal(e, a)
}

func describe(v any) string {
	b, err := state.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func describeDrivers(bound map[string]bool) string {
	if len(bound) == 0 {
		return "none"
	}
	return strings.Join(slices.Sorted(maps.Keys(bound)), ", ")
}
