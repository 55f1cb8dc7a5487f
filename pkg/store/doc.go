// Package store replaces implicit global app state with an explicit,
// passed-down handle: typed keys, per-store signals, and a lifecycle
// that owns the event loop.
package store
