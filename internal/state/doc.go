// Package state holds the application state model: Record snapshots, the
// shallow merge that folds update patches into them, shallow equality and
// deduplication helpers, deterministic JSON encoding, and loading of
// initial state from CUE, YAML or JSON files.
package state
