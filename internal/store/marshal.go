package store

import (
	"fmt"

	"github.com/roach88/frap/internal/state"
)

// marshalState converts a record to canonical JSON TEXT for storage, so
// equal states are stored byte-identically.
func marshalState(r state.Record) (string, error) {
	if r == nil {
		r = state.Record{}
	}
	data, err := state.MarshalCanonical(r)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), nil
}

// unmarshalState parses a stored state column back into a record.
func unmarshalState(text string) (state.Record, error) {
	r, err := state.UnmarshalRecord([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return r, nil
}
