package testutil

// FixedRunIDGenerator generates the same run id every time.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario with the same FixedRunIDGenerator produces
// byte-identical debug logs and journals.
//
// Unlike engine.FixedGenerator which returns ids in sequence, this generator
// never runs out, so it also serves scenarios that start several runs.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a new fixed run id generator.
//
// The id is typically set in the scenario YAML:
//
//	run_id: "test-run-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements engine.RunIDGenerator interface.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
