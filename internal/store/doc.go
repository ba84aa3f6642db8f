// Package store persists note signatures between runs.
//
// The store is a single SQLite table keyed by absolute note path. Each phase
// of a run opens the store, performs one bulk operation and closes it again;
// no handle outlives the phase that opened it.
package store
