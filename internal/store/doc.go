// Package store provides a SQLite-backed journal of state snapshots.
//
// Each run of an application gets a row in runs (app name, initial state,
// terminal error) and one row in snapshots per state the run emitted:
//   - seq: position within the run, 0 is the initial state
//   - tick: scheduler turn the snapshot was observed at
//   - state: canonical JSON of the record
//
// Ordering uses seq and tick, never wall-clock time, so a journal reads
// back the same on every replay. Replay recovers the update patches from
// consecutive snapshots and checks that folding them over the initial
// state reproduces the recorded sequence.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
