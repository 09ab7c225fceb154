package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/frap/internal/state"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// writeTestRun writes a run and its snapshots, failing the test on error.
func writeTestRun(t *testing.T, s *Store, id string, initial state.Record, snapshots ...state.Record) {
	t.Helper()
	ctx := context.Background()
	if err := s.WriteRun(ctx, Run{ID: id, App: "test", Initial: initial}); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	for i, snap := range snapshots {
		err := s.WriteSnapshot(ctx, Snapshot{RunID: id, Seq: int64(i), Tick: int64(i * 2), State: snap})
		if err != nil {
			t.Fatalf("WriteSnapshot(%d) failed: %v", i, err)
		}
	}
}
